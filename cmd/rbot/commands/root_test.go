package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd("test")
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("rbot %v: %v\n%s", args, err, stderr.String())
	}
	return stdout.String()
}

func useTempStorage(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "json")
	t.Setenv("STORAGE_PATH", filepath.Join(t.TempDir(), "store.json"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ACCESS_FILE", "")
	t.Setenv("REDIS_URL", "")
}

func TestExecRunsCommand(t *testing.T) {
	useTempStorage(t)

	out := run(t, "exec", "ping")
	if out != "[console] pong\n" {
		t.Errorf("unexpected output %q", out)
	}

	out = run(t, "exec", "--role", "Admin", "promote", "<@123456789012345678>", "Moderator")
	if !strings.Contains(out, "(console-trigger reacted ✅)") {
		t.Errorf("expected acknowledgement, got %q", out)
	}
}

func TestExecRoleIsNotStored(t *testing.T) {
	useTempStorage(t)

	out := run(t, "exec", "--as", "ops", "--role", "Admin", "users")
	if out != "[console] No users yet\n" {
		t.Errorf("unexpected output %q", out)
	}

	lines := strings.Split(strings.TrimSpace(run(t, "roles", "list")), "\n")
	if len(lines) != 1 {
		t.Errorf("exec --role must not store a role, got %q", lines)
	}
}

func TestExecDeniesGuests(t *testing.T) {
	useTempStorage(t)

	out := run(t, "exec", "--as", "someone", "users")
	if out != "[console] You (Guest) are not allowed to run this command\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRolesSetAndList(t *testing.T) {
	useTempStorage(t)

	if out := run(t, "roles", "set", "42", "moderator"); out != "42 is now Moderator\n" {
		t.Errorf("unexpected output %q", out)
	}

	out := run(t, "roles", "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "USER") || !strings.Contains(lines[1], "Moderator") {
		t.Errorf("unexpected listing %q", out)
	}
}

func TestDocsPrintsReference(t *testing.T) {
	out := run(t, "docs")
	if !strings.HasPrefix(out, "# rbot commands") || !strings.Contains(out, "### Admin") || !strings.Contains(out, "`@BOT deploy") {
		t.Errorf("unexpected reference:\n%s", out)
	}
}
