// Package command holds the command contract, the immutable registry and the
// dispatcher that turns a tokenized message into a handler call.
package command

import (
	"context"
	"strings"

	"github.com/keshon/rbot/internal/chat"
	"github.com/keshon/rbot/internal/role"
)

// OK is the reserved handler result that acknowledges the triggering message
// with a reaction instead of a text reply.
const OK = ":ok:"

// Invocation is one parsed command call. Args[0] is the command name.
type Invocation struct {
	Args    []string
	Message chat.MessageEvent
	Role    role.Role
}

// Name returns the invoked command name.
func (inv *Invocation) Name() string {
	if len(inv.Args) == 0 {
		return ""
	}
	return inv.Args[0]
}

// Params returns the arguments after the command name.
func (inv *Invocation) Params() []string {
	if len(inv.Args) < 2 {
		return nil
	}
	return inv.Args[1:]
}

// Handler executes a command. An empty result sends nothing, OK reacts to
// the trigger and anything else is sent as a reply.
type Handler interface {
	Execute(ctx context.Context, inv *Invocation) (string, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, inv *Invocation) (string, error)

func (f HandlerFunc) Execute(ctx context.Context, inv *Invocation) (string, error) {
	return f(ctx, inv)
}

// Command describes one registered command.
type Command struct {
	Name        string
	Description string
	Usage       string
	Permission  role.Role
	MinArgs     int
	MaxArgs     int
	Channel     string // empty means any channel
	Handler     Handler
}

// UsageText is the usage line shown on argument errors and in help.
func (c Command) UsageText() string {
	if strings.TrimSpace(c.Usage) == "" {
		return c.Name
	}
	return c.Usage
}
