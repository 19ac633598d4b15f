// Package chat holds the gateway-neutral view of the chat service: the
// normalized inbound events and the outbound capabilities the bot core needs.
package chat

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Canonical approval glyphs.
const (
	EmojiApprove = "✅"
	EmojiReject  = "❌"
)

// MessageEvent is a message posted in a channel the bot can read.
type MessageEvent struct {
	Content    string
	AuthorID   string
	AuthorName string
	ChannelID  string
	GuildID    string
	MessageID  string
	AuthorBot  bool
}

// ReactionEvent is a reaction added to or removed from a message.
type ReactionEvent struct {
	Emoji     string
	MessageID string
	ChannelID string
	GuildID   string
	UserID    string
	Removed   bool
}

// Event is one inbound gateway event; exactly one field is set.
type Event struct {
	Message  *MessageEvent
	Reaction *ReactionEvent
}

// Messenger is the outbound side of the chat service.
type Messenger interface {
	SendMessage(ctx context.Context, channelID, text string) (messageID string, err error)
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	EditMessage(ctx context.Context, channelID, messageID, text string) error
}

// Directory answers guild membership questions.
type Directory interface {
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
}

// NormalizeEmoji undoes the percent-encoding some gateways apply to unicode
// reaction names ("%E2%9C%85" -> "✅").
func NormalizeEmoji(e string) string {
	if decoded, err := url.PathUnescape(e); err == nil {
		return decoded
	}
	return e
}

func UserMention(id string) string    { return "<@" + id + ">" }
func ChannelMention(id string) string { return "<#" + id + ">" }

// MessageLink is the jump URL of a message.
func MessageLink(guildID, channelID, messageID string) string {
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// Channel is a guild channel as the bot commands see it.
type Channel struct {
	ID       string
	Name     string
	ParentID string
	Position int
	Category bool
	// LastActivity is when the latest message was posted; zero if unknown.
	LastActivity time.Time
}
