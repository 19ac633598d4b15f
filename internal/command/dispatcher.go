package command

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/keshon/rbot/internal/chat"
	"github.com/keshon/rbot/internal/role"
)

const DefaultNotFoundReply = "How about a proper request ?"

// Authorizer decides whether a caller holds the required role.
type Authorizer interface {
	Authorize(ctx context.Context, userID, guildID string, required role.Role) (bool, role.Role, error)
}

// Options tune the dispatcher's replies.
type Options struct {
	NotFoundReply string // defaults to DefaultNotFoundReply
	SilentUnknown bool   // ignore unknown commands entirely
	Maintainer    string // named in the apology after a handler failure
}

// Dispatcher runs one invocation through lookup, channel restriction,
// permission check, argument bounds, the handler and result rendering.
type Dispatcher struct {
	registry *Registry
	gate     Authorizer
	out      chat.Messenger
	opts     Options
	log      zerolog.Logger
}

func NewDispatcher(reg *Registry, gate Authorizer, out chat.Messenger, logger zerolog.Logger, opts Options) *Dispatcher {
	if opts.NotFoundReply == "" {
		opts.NotFoundReply = DefaultNotFoundReply
	}
	if opts.Maintainer == "" {
		opts.Maintainer = "the maintainer"
	}
	return &Dispatcher{
		registry: reg,
		gate:     gate,
		out:      out,
		opts:     opts,
		log:      logger.With().Str("component", "dispatcher").Logger(),
	}
}

func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch handles args, the tokens of msg after the bot mention. Handler
// failures never propagate; the returned error only reports problems talking
// to the chat service or resolving the caller's role.
func (d *Dispatcher) Dispatch(ctx context.Context, args []string, msg chat.MessageEvent) error {
	if len(args) == 0 {
		return nil
	}

	cmd, ok := d.registry.Lookup(args[0])
	if !ok {
		if d.opts.SilentUnknown {
			return nil
		}
		return d.reply(ctx, msg, d.opts.NotFoundReply)
	}

	if cmd.Channel != "" && cmd.Channel != msg.ChannelID {
		return d.reply(ctx, msg, fmt.Sprintf(
			"I am not allowed to issue this command in this channel ! Use %s instead.",
			chat.ChannelMention(cmd.Channel)))
	}

	allowed, current, err := d.gate.Authorize(ctx, msg.AuthorID, msg.GuildID, cmd.Permission)
	if err != nil {
		return fmt.Errorf("authorize %s for %s: %w", msg.AuthorID, cmd.Name, err)
	}
	if !allowed {
		d.log.Info().Str("command", cmd.Name).Str("user", msg.AuthorID).Stringer("role", current).Msg("permission denied")
		return d.reply(ctx, msg, fmt.Sprintf("You (%s) are not allowed to run this command", current))
	}

	argc := len(args) - 1
	if argc < cmd.MinArgs {
		return d.reply(ctx, msg, "No enough arguments\nUsage: "+cmd.UsageText())
	}
	if argc > cmd.MaxArgs {
		return d.reply(ctx, msg, "Too many arguments\nUsage: "+cmd.UsageText())
	}

	inv := &Invocation{Args: args, Message: msg, Role: current}
	out, err := d.execute(ctx, cmd, inv)
	if err != nil {
		d.log.Error().Err(err).Str("command", cmd.Name).Str("user", msg.AuthorID).Msg("command failed")
		return d.reply(ctx, msg, fmt.Sprintf("Something went wrong running %s, please ping %s.", cmd.Name, d.opts.Maintainer))
	}

	switch out {
	case "":
		return nil
	case OK:
		if err := d.out.AddReaction(ctx, msg.ChannelID, msg.MessageID, chat.EmojiApprove); err != nil {
			return fmt.Errorf("acknowledge %s: %w", cmd.Name, err)
		}
		return nil
	default:
		return d.reply(ctx, msg, out)
	}
}

func (d *Dispatcher) execute(ctx context.Context, cmd Command, inv *Invocation) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("command", cmd.Name).Bytes("stack", debug.Stack()).Msg("handler panicked")
			out, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	return cmd.Handler.Execute(ctx, inv)
}

func (d *Dispatcher) reply(ctx context.Context, msg chat.MessageEvent, text string) error {
	if _, err := d.out.SendMessage(ctx, msg.ChannelID, text); err != nil {
		return fmt.Errorf("reply in %s: %w", msg.ChannelID, err)
	}
	return nil
}
