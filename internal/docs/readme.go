// Package docs renders the command reference from the registry.
package docs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"text/template"

	"github.com/keshon/rbot/internal/command"
	"github.com/keshon/rbot/internal/role"
)

// defaultTemplate is used when no README template is given.
const defaultTemplate = `# rbot commands

Mention the bot followed by a command, e.g. ` + "`@rbot help`" + `.

{{.CommandSections}}`

// CommandSections lists the commands grouped by the role they require,
// lowest role first.
func CommandSections(reg *command.Registry) string {
	cmds := reg.All()
	slices.SortStableFunc(cmds, func(a, b command.Command) int {
		return int(a.Permission) - int(b.Permission)
	})

	var buf bytes.Buffer
	current := role.Role(-1)
	for _, c := range cmds {
		if c.Permission != current {
			if current >= 0 {
				buf.WriteString("\n")
			}
			current = c.Permission
			fmt.Fprintf(&buf, "### %s\n\n", current)
		}
		fmt.Fprintf(&buf, "* **`%s`**\n  %s\n", c.UsageText(), c.Description)
		if c.Channel != "" {
			fmt.Fprintf(&buf, "  Only in channel `%s`.\n", c.Channel)
		}
	}
	return buf.String()
}

// Render executes tmplText, or the default template when empty, with the
// command sections of reg.
func Render(w io.Writer, tmplText string, reg *command.Registry) error {
	if tmplText == "" {
		tmplText = defaultTemplate
	}
	tmpl, err := template.New("readme").Parse(tmplText)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	return tmpl.Execute(w, struct{ CommandSections string }{CommandSections(reg)})
}

// UpdateReadme renders tmplPath into outPath.
func UpdateReadme(reg *command.Registry, tmplPath, outPath string) error {
	data, err := os.ReadFile(tmplPath)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := Render(&out, string(data), reg); err != nil {
		return err
	}
	return os.WriteFile(outPath, out.Bytes(), 0o644)
}
