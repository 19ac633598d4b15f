package command

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidCommand is returned by NewRegistry for a malformed definition.
var ErrInvalidCommand = errors.New("invalid command")

// Registry is the immutable command table. It has no mutation API.
type Registry struct {
	commands map[string]Command
	sorted   []Command
}

// NewRegistry validates and indexes cmds.
func NewRegistry(cmds ...Command) (*Registry, error) {
	r := &Registry{commands: make(map[string]Command, len(cmds))}

	for _, c := range cmds {
		switch {
		case c.Name == "":
			return nil, fmt.Errorf("%w: empty name", ErrInvalidCommand)
		case c.MinArgs < 0 || c.MinArgs > c.MaxArgs:
			return nil, fmt.Errorf("%w: %s: argument bounds [%d,%d]", ErrInvalidCommand, c.Name, c.MinArgs, c.MaxArgs)
		case !c.Permission.Valid():
			return nil, fmt.Errorf("%w: %s: unknown permission %d", ErrInvalidCommand, c.Name, int(c.Permission))
		case c.Handler == nil:
			return nil, fmt.Errorf("%w: %s: no handler", ErrInvalidCommand, c.Name)
		}
		if _, dup := r.commands[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %s", ErrInvalidCommand, c.Name)
		}
		r.commands[c.Name] = c
		r.sorted = append(r.sorted, c)
	}

	sort.Slice(r.sorted, func(i, j int) bool {
		return r.sorted[i].Name < r.sorted[j].Name
	})
	return r, nil
}

// Lookup finds a command by exact, case-sensitive name.
func (r *Registry) Lookup(name string) (Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// All returns every command sorted by name.
func (r *Registry) All() []Command {
	out := make([]Command, len(r.sorted))
	copy(out, r.sorted)
	return out
}

func (r *Registry) Len() int { return len(r.commands) }
