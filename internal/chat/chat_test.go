package chat

import "testing"

func TestNormalizeEmoji(t *testing.T) {
	tests := map[string]string{
		"%E2%9C%85": EmojiApprove,
		"%E2%9D%8C": EmojiReject,
		"✅":         EmojiApprove,
		"pepe":      "pepe",
		"100%":      "100%",
	}
	for in, want := range tests {
		if got := NormalizeEmoji(in); got != want {
			t.Errorf("NormalizeEmoji(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMessageLink(t *testing.T) {
	if got := MessageLink("1", "2", "3"); got != "https://discord.com/channels/1/2/3" {
		t.Errorf("unexpected link %s", got)
	}
	if got := MessageLink("", "2", "3"); got != "https://discord.com/channels/@me/2/3" {
		t.Errorf("unexpected DM link %s", got)
	}
}
