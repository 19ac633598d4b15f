package commands

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/rbot/internal/approval"
	"github.com/keshon/rbot/internal/chat"
	"github.com/keshon/rbot/internal/chat/chattest"
	"github.com/keshon/rbot/internal/command"
	"github.com/keshon/rbot/internal/permission"
	"github.com/keshon/rbot/internal/role"
	"github.com/keshon/rbot/internal/storage"
)

const (
	guildID     = "g1"
	channelID   = "c1"
	adminID     = "admin"
	archiveID   = "900000000000000001"
	categoryID  = "900000000000000002"
	otherUserID = "300000000000000003"
)

type fakeChannels struct {
	list []chat.Channel
}

func (f *fakeChannels) Channels(context.Context, string) ([]chat.Channel, error) {
	return f.list, nil
}

type fakeExecutor struct {
	mu       sync.Mutex
	archived []approval.ArchiveChannels
	reorders []approval.ReorderChannels
}

func (f *fakeExecutor) ArchiveChannels(_ context.Context, a approval.ArchiveChannels) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, a)
	return nil
}

func (f *fakeExecutor) ReorderChannels(_ context.Context, a approval.ReorderChannels) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reorders = append(f.reorders, a)
	return nil
}

type harness struct {
	t        *testing.T
	out      *chattest.Recorder
	gate     *permission.Gate
	store    storage.Store
	workflow *approval.Workflow
	exec     *fakeExecutor
	channels *fakeChannels
	dispatch *command.Dispatcher
	seq      int
}

func newHarness(t *testing.T, tweak func(*Deps)) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open("json", filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	h := &harness{
		t:        t,
		out:      &chattest.Recorder{},
		store:    store,
		exec:     &fakeExecutor{},
		channels: &fakeChannels{},
	}
	h.gate = permission.NewGate(store, nil, "", zerolog.Nop())
	if err := h.gate.SetRole(ctx, adminID, role.Admin); err != nil {
		t.Fatal(err)
	}
	h.workflow = approval.NewWorkflow(approval.NewMemoryStore[approval.Pending](), h.out, h.exec, nil, zerolog.Nop())

	d := Deps{
		Gate:              h.gate,
		Store:             store,
		Workflow:          h.workflow,
		Channels:          h.channels,
		ArchiveCategoryID: archiveID,
		Logger:            zerolog.Nop(),
	}
	if tweak != nil {
		tweak(&d)
	}

	reg, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	h.dispatch = command.NewDispatcher(reg, h.gate, h.out, zerolog.Nop(), command.Options{})
	return h
}

// run dispatches args as userID and returns the texts sent in response.
func (h *harness) run(userID string, args ...string) []string {
	h.t.Helper()
	before := len(h.out.Sent())
	h.seq++
	msg := chat.MessageEvent{
		Content:    strings.Join(args, " "),
		AuthorID:   userID,
		AuthorName: userID,
		ChannelID:  channelID,
		GuildID:    guildID,
		MessageID:  "trigger-" + string(rune('a'+h.seq)),
	}
	if err := h.dispatch.Dispatch(context.Background(), args, msg); err != nil {
		h.t.Fatalf("dispatch %v: %v", args, err)
	}
	return h.out.Texts()[before:]
}

func (h *harness) approveLast() {
	h.t.Helper()
	sent := h.out.Sent()
	last := sent[len(sent)-1]
	consumed, err := h.workflow.HandleReaction(context.Background(), chat.ReactionEvent{
		Emoji:     chat.EmojiApprove,
		MessageID: last.MessageID,
		ChannelID: last.ChannelID,
		GuildID:   guildID,
		UserID:    adminID,
	})
	if err != nil || !consumed {
		h.t.Fatalf("approve %s: consumed=%v err=%v", last.MessageID, consumed, err)
	}
}

func TestHelpListsEveryCommand(t *testing.T) {
	h := newHarness(t, nil)
	out := h.run(adminID, "help")
	if len(out) != 1 {
		t.Fatalf("expected one reply, got %v", out)
	}
	if !strings.HasPrefix(out[0], "Available commands: \nNAME => USAGE | PERMISSION\n") {
		t.Errorf("unexpected header %q", out[0])
	}
	for _, name := range []string{"ping", "help", "users", "promote", "history", "archive", "reorder", "bump", "count", "pending", "deploy"} {
		if !strings.Contains(out[0], "\n"+name+" => Usage: ") {
			t.Errorf("help misses %s", name)
		}
	}
	if !strings.Contains(out[0], "ping => Usage: @BOT ping | {Guest}") {
		t.Errorf("unexpected ping line in %q", out[0])
	}
}

func TestPromote(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if out := h.run(adminID, "promote", "<@"+otherUserID+">", "Moderator"); len(out) != 0 {
		t.Fatalf("expected a reaction only, got %v", out)
	}
	if r := h.out.Reactions(); len(r) != 1 || r[0].Emoji != chat.EmojiApprove {
		t.Fatalf("expected ✅ on the trigger, got %+v", r)
	}
	if r, _ := h.gate.Role(ctx, otherUserID); r != role.Moderator {
		t.Errorf("role = %v, want Moderator", r)
	}

	if out := h.run(adminID, "promote", "<@"+otherUserID+">", "Overlord"); len(out) != 1 || out[0] != "Role not found" {
		t.Errorf("unexpected reply %v", out)
	}
	if out := h.run(otherUserID, "promote", "<@"+otherUserID+">", "Admin"); len(out) != 1 || out[0] != "You (Moderator) are not allowed to run this command" {
		t.Errorf("unexpected reply %v", out)
	}

	out := h.run(adminID, "users")
	if len(out) != 1 || !strings.Contains(out[0], "<@"+otherUserID+"> => Moderator") {
		t.Errorf("unexpected users listing %v", out)
	}
}

func TestArchiveProposesStaleChannels(t *testing.T) {
	h := newHarness(t, nil)
	now := time.Now()
	h.channels.list = []chat.Channel{
		{ID: "100000000000000001", Name: "old", LastActivity: now.Add(-40 * 24 * time.Hour)},
		{ID: "100000000000000002", Name: "fresh", LastActivity: now.Add(-24 * time.Hour)},
		{ID: "100000000000000003", Name: "never", ParentID: categoryID, LastActivity: now.Add(-90 * 24 * time.Hour)},
		{ID: categoryID, Name: "projects", Category: true},
	}

	out := h.run(adminID, "archive")
	if len(out) != 1 || !strings.Contains(out[0], "<#100000000000000001>") || strings.Contains(out[0], "100000000000000002") {
		t.Fatalf("unexpected proposal %v", out)
	}
	h.approveLast()

	if len(h.exec.archived) != 1 {
		t.Fatalf("expected one archive, got %d", len(h.exec.archived))
	}
	got := h.exec.archived[0]
	if got.CategoryID != archiveID || !slices.Equal(got.ChannelIDs, []string{"100000000000000001"}) {
		t.Errorf("unexpected archive %+v", got)
	}

	out = h.run(adminID, "archive", "<#"+categoryID+">")
	if len(out) != 1 || !strings.Contains(out[0], "<#100000000000000003>") {
		t.Fatalf("unexpected category proposal %v", out)
	}
}

func TestArchiveNothingToDo(t *testing.T) {
	h := newHarness(t, nil)
	h.channels.list = []chat.Channel{
		{ID: "100000000000000002", Name: "fresh", LastActivity: time.Now()},
	}
	if out := h.run(adminID, "archive"); len(out) != 1 || out[0] != "Nothing to do" {
		t.Errorf("unexpected reply %v", out)
	}
}

func TestArchiveWithoutArchiveCategory(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.ArchiveCategoryID = "" })
	if out := h.run(adminID, "archive"); len(out) != 1 || out[0] != "No archive category configured" {
		t.Errorf("unexpected reply %v", out)
	}
}

func TestReorder(t *testing.T) {
	h := newHarness(t, nil)
	h.channels.list = []chat.Channel{
		{ID: "b", Name: "beta", ParentID: categoryID, Position: 0},
		{ID: "a", Name: "Alpha", ParentID: categoryID, Position: 1},
		{ID: "x", Name: "elsewhere", Position: 0},
	}

	out := h.run(adminID, "reorder", "<#"+categoryID+">")
	if len(out) != 1 || !strings.Contains(out[0], "1. <#a>\n2. <#b>") {
		t.Fatalf("unexpected proposal %v", out)
	}
	h.approveLast()
	if len(h.exec.reorders) != 1 || !slices.Equal(h.exec.reorders[0].Order, []string{"a", "b"}) {
		t.Fatalf("unexpected reorders %+v", h.exec.reorders)
	}

	h.channels.list[0].Position, h.channels.list[1].Position = 1, 0
	if out := h.run(adminID, "reorder", "<#"+categoryID+">"); len(out) != 1 || out[0] != "Nothing to do" {
		t.Errorf("unexpected reply %v", out)
	}
}

func TestBumpAndCount(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.gate.SetRole(context.Background(), otherUserID, role.User); err != nil {
		t.Fatal(err)
	}

	h.run(otherUserID, "bump")
	h.approveLast()
	h.run(otherUserID, "bump", "2")
	h.approveLast()

	if out := h.run(otherUserID, "bump", "zero"); len(out) != 1 || out[0] != "Amount must be a positive number" {
		t.Errorf("unexpected reply %v", out)
	}
	if out := h.run(otherUserID, "count"); len(out) != 1 || out[0] != "Counter is at 3" {
		t.Errorf("unexpected count %v", out)
	}

	h.run(otherUserID, "bump")
	if out := h.run(adminID, "pending"); len(out) != 1 || out[0] != "1 approval(s) and 0 deployment(s) pending" {
		t.Errorf("unexpected pending %v", out)
	}
}

func TestDeployNotConfigured(t *testing.T) {
	h := newHarness(t, nil)
	if out := h.run(adminID, "deploy", "dep-1"); len(out) != 1 || out[0] != "Deployments are not configured" {
		t.Errorf("unexpected reply %v", out)
	}
}

func TestHistoryRecordsGuildCommands(t *testing.T) {
	h := newHarness(t, nil)
	h.run(adminID, "ping")
	h.run(adminID, "count")

	out := h.run(adminID, "history", "5")
	if len(out) != 1 {
		t.Fatalf("expected one reply, got %v", out)
	}
	lines := strings.Split(strings.TrimSpace(out[0]), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], ": count") || !strings.HasSuffix(lines[1], ": ping") {
		t.Errorf("unexpected history %q", out[0])
	}

	if out := h.run(adminID, "history", "-1"); len(out) != 1 || out[0] != "Count must be a positive number" {
		t.Errorf("unexpected reply %v", out)
	}
}
