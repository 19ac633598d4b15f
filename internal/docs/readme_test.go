package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keshon/rbot/internal/command"
	"github.com/keshon/rbot/internal/role"
)

func testRegistry(t *testing.T) *command.Registry {
	t.Helper()
	noop := command.HandlerFunc(func(context.Context, *command.Invocation) (string, error) { return "", nil })
	reg, err := command.NewRegistry(
		command.Command{Name: "promote", Usage: "@BOT promote @user <role>", Description: "Set a role", Permission: role.Admin, MinArgs: 2, MaxArgs: 2, Handler: noop},
		command.Command{Name: "ping", Description: "Check the bot is alive", Permission: role.Guest, Handler: noop},
		command.Command{Name: "count", Description: "Show the counter", Permission: role.Guest, Channel: "123", Handler: noop},
	)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestCommandSectionsGroupByRole(t *testing.T) {
	got := CommandSections(testRegistry(t))

	guest := strings.Index(got, "### Guest")
	admin := strings.Index(got, "### Admin")
	if guest < 0 || admin < 0 || guest > admin {
		t.Fatalf("sections out of order:\n%s", got)
	}
	if strings.Index(got, "`count`") > strings.Index(got, "`ping`") {
		t.Errorf("commands not sorted by name:\n%s", got)
	}
	if !strings.Contains(got, "* **`@BOT promote @user <role>`**\n  Set a role\n") {
		t.Errorf("missing promote entry:\n%s", got)
	}
	if !strings.Contains(got, "Only in channel `123`.") {
		t.Errorf("missing channel restriction:\n%s", got)
	}
}

func TestUpdateReadme(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "README.md.tmpl")
	out := filepath.Join(dir, "README.md")
	if err := os.WriteFile(tmpl, []byte("# Bot\n{{.CommandSections}}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := UpdateReadme(testRegistry(t), tmpl, out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Bot\n### Guest") {
		t.Errorf("unexpected README:\n%s", data)
	}
}
