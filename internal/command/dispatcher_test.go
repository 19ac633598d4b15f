package command

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/keshon/rbot/internal/chat"
	"github.com/keshon/rbot/internal/chat/chattest"
	"github.com/keshon/rbot/internal/permission"
	"github.com/keshon/rbot/internal/role"
	"github.com/keshon/rbot/internal/storage"
)

type staticAuthorizer map[string]role.Role

func (a staticAuthorizer) Authorize(_ context.Context, userID, _ string, required role.Role) (bool, role.Role, error) {
	r := a[userID]
	return r.AtLeast(required), r, nil
}

func message(author, channel string) chat.MessageEvent {
	return chat.MessageEvent{
		AuthorID:  author,
		ChannelID: channel,
		GuildID:   "g1",
		MessageID: "trigger",
	}
}

func reply(text string) Handler {
	return HandlerFunc(func(context.Context, *Invocation) (string, error) { return text, nil })
}

func newDispatcher(t *testing.T, auth Authorizer, opts Options, cmds ...Command) (*Dispatcher, *chattest.Recorder) {
	t.Helper()
	reg, err := NewRegistry(cmds...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	rec := &chattest.Recorder{}
	return NewDispatcher(reg, auth, rec, zerolog.Nop(), opts), rec
}

func TestPingPongEndToEnd(t *testing.T) {
	st, err := storage.OpenJSON(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	gate := permission.NewGate(st, nil, "", zerolog.Nop())

	d, rec := newDispatcher(t, gate, Options{}, Command{
		Name: "ping", Permission: role.Guest, MinArgs: 0, MaxArgs: 0, Handler: reply("pong"),
	})

	if err := d.Dispatch(context.Background(), []string{"ping"}, message("guest", "c1")); err != nil {
		t.Fatal(err)
	}
	texts := rec.Texts()
	if len(texts) != 1 || texts[0] != "pong" {
		t.Fatalf("expected [pong], got %q", texts)
	}
}

func TestArgumentBoundsNeverInvokeHandler(t *testing.T) {
	bounds := [][2]int{{0, 0}, {1, 1}, {1, 3}, {2, 2}}
	for _, b := range bounds {
		var calls atomic.Int32
		d, rec := newDispatcher(t, staticAuthorizer{}, Options{}, Command{
			Name:    "cmd",
			Usage:   "cmd <a>",
			MinArgs: b[0],
			MaxArgs: b[1],
			Handler: HandlerFunc(func(context.Context, *Invocation) (string, error) {
				calls.Add(1)
				return "", nil
			}),
		})

		for argc := 0; argc <= 5; argc++ {
			calls.Store(0)
			args := append([]string{"cmd"}, make([]string, argc)...)
			before := len(rec.Texts())
			if err := d.Dispatch(context.Background(), args, message("u", "c")); err != nil {
				t.Fatal(err)
			}

			inBounds := argc >= b[0] && argc <= b[1]
			if inBounds != (calls.Load() == 1) {
				t.Errorf("bounds %v argc %d: handler calls %d", b, argc, calls.Load())
			}
			if inBounds {
				continue
			}

			texts := rec.Texts()[before:]
			if len(texts) != 1 {
				t.Fatalf("bounds %v argc %d: expected one reply, got %q", b, argc, texts)
			}
			prefix := "Too many arguments"
			if argc < b[0] {
				prefix = "No enough arguments"
			}
			if !strings.HasPrefix(texts[0], prefix) || !strings.HasSuffix(texts[0], "Usage: cmd <a>") {
				t.Errorf("bounds %v argc %d: reply %q", b, argc, texts[0])
			}
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	d, rec := newDispatcher(t, staticAuthorizer{}, Options{}, Command{Name: "ping", Handler: reply("pong")})
	if err := d.Dispatch(context.Background(), []string{"Ping"}, message("u", "c")); err != nil {
		t.Fatal(err)
	}
	if texts := rec.Texts(); len(texts) != 1 || texts[0] != DefaultNotFoundReply {
		t.Errorf("unexpected replies %q", texts)
	}
	if len(rec.Reactions()) != 0 || len(rec.Edits()) != 0 {
		t.Error("unknown command must not react or edit")
	}

	silent, rec := newDispatcher(t, staticAuthorizer{}, Options{SilentUnknown: true}, Command{Name: "ping", Handler: reply("pong")})
	if err := silent.Dispatch(context.Background(), []string{"nope", "x"}, message("u", "c")); err != nil {
		t.Fatal(err)
	}
	if len(rec.Sent()) != 0 || len(rec.Reactions()) != 0 {
		t.Error("silent mode must not send anything")
	}
}

func TestChannelRestriction(t *testing.T) {
	var called bool
	d, rec := newDispatcher(t, staticAuthorizer{}, Options{}, Command{
		Name:    "deploy",
		Channel: "123",
		Handler: HandlerFunc(func(context.Context, *Invocation) (string, error) {
			called = true
			return "", nil
		}),
	})

	if err := d.Dispatch(context.Background(), []string{"deploy"}, message("u", "999")); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("handler invoked in the wrong channel")
	}
	want := "I am not allowed to issue this command in this channel ! Use <#123> instead."
	if texts := rec.Texts(); len(texts) != 1 || texts[0] != want {
		t.Errorf("unexpected replies %q", texts)
	}

	if err := d.Dispatch(context.Background(), []string{"deploy"}, message("u", "123")); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("handler not invoked in the right channel")
	}
}

func TestPermissionDeniedNamesRole(t *testing.T) {
	d, rec := newDispatcher(t, staticAuthorizer{"u": role.User}, Options{}, Command{
		Name: "users", Permission: role.Admin, Handler: reply("secret"),
	})
	if err := d.Dispatch(context.Background(), []string{"users"}, message("u", "c")); err != nil {
		t.Fatal(err)
	}
	texts := rec.Texts()
	if len(texts) != 1 || texts[0] != "You (User) are not allowed to run this command" {
		t.Errorf("unexpected replies %q", texts)
	}
}

func TestOKSentinelReacts(t *testing.T) {
	d, rec := newDispatcher(t, staticAuthorizer{}, Options{}, Command{Name: "ack", Handler: reply(OK)})
	if err := d.Dispatch(context.Background(), []string{"ack"}, message("u", "c")); err != nil {
		t.Fatal(err)
	}
	if len(rec.Sent()) != 0 {
		t.Errorf("sentinel sent as text: %q", rec.Texts())
	}
	r := rec.Reactions()
	if len(r) != 1 || r[0].Emoji != chat.EmojiApprove || r[0].MessageID != "trigger" {
		t.Errorf("unexpected reactions %+v", r)
	}
}

func TestEmptyResultIsSilent(t *testing.T) {
	d, rec := newDispatcher(t, staticAuthorizer{}, Options{}, Command{Name: "quiet", Handler: reply("")})
	if err := d.Dispatch(context.Background(), []string{"quiet"}, message("u", "c")); err != nil {
		t.Fatal(err)
	}
	if len(rec.Sent()) != 0 || len(rec.Reactions()) != 0 {
		t.Error("empty result must not produce output")
	}
}

func TestHandlerFailuresApologize(t *testing.T) {
	failing := Command{Name: "fail", Handler: HandlerFunc(func(context.Context, *Invocation) (string, error) {
		return "partial", errors.New("boom")
	})}
	panicking := Command{Name: "explode", Handler: HandlerFunc(func(context.Context, *Invocation) (string, error) {
		panic("kaboom")
	})}
	d, rec := newDispatcher(t, staticAuthorizer{}, Options{Maintainer: "@ops"}, failing, panicking)

	for _, name := range []string{"fail", "explode"} {
		if err := d.Dispatch(context.Background(), []string{name}, message("u", "c")); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}

	want := []string{
		"Something went wrong running fail, please ping @ops.",
		"Something went wrong running explode, please ping @ops.",
	}
	texts := rec.Texts()
	if len(texts) != len(want) {
		t.Fatalf("unexpected replies %q", texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("reply %d: got %q want %q", i, texts[i], want[i])
		}
	}
}

func TestInvocationCarriesTokensAndRole(t *testing.T) {
	var got *Invocation
	d, _ := newDispatcher(t, staticAuthorizer{"m": role.Moderator}, Options{}, Command{
		Name: "echo", MaxArgs: 2, Permission: role.User,
		Handler: HandlerFunc(func(_ context.Context, inv *Invocation) (string, error) {
			got = inv
			return "", nil
		}),
	})
	if err := d.Dispatch(context.Background(), []string{"echo", "a b", "c"}, message("m", "c")); err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name() != "echo" || got.Role != role.Moderator {
		t.Fatalf("unexpected invocation %+v", got)
	}
	if p := got.Params(); len(p) != 2 || p[0] != "a b" || p[1] != "c" {
		t.Errorf("unexpected params %q", p)
	}
}
