// Package bot routes inbound chat events to the dispatcher and the approval
// handlers. A Bot is built once in main and holds every collaborator.
package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/keshon/rbot/internal/approval"
	"github.com/keshon/rbot/internal/chat"
	"github.com/keshon/rbot/internal/command"
	"github.com/keshon/rbot/internal/deployment"
	"github.com/keshon/rbot/internal/parse"
)

const BareMentionReply = "What do you need ?"

type Options struct {
	// Workers bounds how many events are handled at once.
	Workers int
	// BotID returns the bot's own user id; mentions of it start a command.
	BotID func() string
}

type Bot struct {
	dispatcher *command.Dispatcher
	workflow   *approval.Workflow
	bridge     *deployment.Bridge
	out        chat.Messenger
	opts       Options
	log        zerolog.Logger
}

// New wires a bot. bridge may be nil when deployments are not configured.
func New(d *command.Dispatcher, wf *approval.Workflow, bridge *deployment.Bridge, out chat.Messenger, logger zerolog.Logger, opts Options) *Bot {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BotID == nil {
		opts.BotID = func() string { return "" }
	}
	return &Bot{
		dispatcher: d,
		workflow:   wf,
		bridge:     bridge,
		out:        out,
		opts:       opts,
		log:        logger.With().Str("component", "bot").Logger(),
	}
}

// Run handles events until ctx is done or the channel closes. Each event runs
// in its own goroutine, at most Workers at a time.
func (b *Bot) Run(ctx context.Context, events <-chan chat.Event) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	b.log.Info().Int("workers", b.opts.Workers).Msg("handling events")

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			g.Go(func() error {
				b.handle(gctx, ev)
				return nil
			})
		}
	}

	return g.Wait()
}

func (b *Bot) handle(ctx context.Context, ev chat.Event) {
	var err error
	switch {
	case ev.Message != nil:
		err = b.HandleMessage(ctx, *ev.Message)
	case ev.Reaction != nil:
		err = b.HandleReaction(ctx, *ev.Reaction)
	}
	if err != nil {
		b.log.Error().Err(err).Msg("event handling failed")
	}
}

// HandleMessage dispatches messages that start with a mention of the bot.
func (b *Bot) HandleMessage(ctx context.Context, msg chat.MessageEvent) error {
	if msg.AuthorBot {
		return nil
	}
	rest, ok := StripMention(msg.Content, b.opts.BotID())
	if !ok {
		return nil
	}
	return b.Execute(ctx, rest, msg)
}

// Execute tokenizes line and dispatches it on behalf of msg.
func (b *Bot) Execute(ctx context.Context, line string, msg chat.MessageEvent) error {
	args := parse.Tokenize(line)
	if len(args) == 0 {
		_, err := b.out.SendMessage(ctx, msg.ChannelID, BareMentionReply)
		return err
	}
	b.log.Debug().Str("user", msg.AuthorID).Strs("args", args).Msg("command received")
	return b.dispatcher.Dispatch(ctx, args, msg)
}

// HandleReaction offers the reaction to the confirmation workflow first and
// then to the deployment bridge.
func (b *Bot) HandleReaction(ctx context.Context, ev chat.ReactionEvent) error {
	consumed, err := b.workflow.HandleReaction(ctx, ev)
	if err != nil || consumed || b.bridge == nil {
		return err
	}
	_, err = b.bridge.HandleReaction(ctx, ev)
	return err
}

// StripMention removes a leading <@id> or <@!id> mention of botID.
func StripMention(content, botID string) (string, bool) {
	if botID == "" {
		return "", false
	}
	content = strings.TrimSpace(content)
	for _, prefix := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
		if rest, ok := strings.CutPrefix(content, prefix); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}
