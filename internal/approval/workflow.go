// Package approval implements the reaction-driven confirmation workflow: a
// proposed action is posted, and the first ✅ or ❌ on that message decides it.
package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keshon/rbot/internal/chat"
)

// Executor performs the channel actions on the chat service.
type Executor interface {
	ArchiveChannels(ctx context.Context, a ArchiveChannels) error
	ReorderChannels(ctx context.Context, a ReorderChannels) error
}

// Workflow owns the pending entries. Entries never expire.
type Workflow struct {
	store Store[Pending]
	out   chat.Messenger
	exec  Executor
	tally *Tally
	log   zerolog.Logger
}

func NewWorkflow(store Store[Pending], out chat.Messenger, exec Executor, tally *Tally, logger zerolog.Logger) *Workflow {
	if tally == nil {
		tally = NewTally()
	}
	return &Workflow{
		store: store,
		out:   out,
		exec:  exec,
		tally: tally,
		log:   logger.With().Str("component", "approval").Logger(),
	}
}

func (w *Workflow) Tally() *Tally { return w.tally }

// Pending reports how many entries wait for a decision.
func (w *Workflow) Pending(ctx context.Context) (int, error) {
	return w.store.Len(ctx)
}

// Request posts text in the trigger's channel, stores action under the new
// message and attaches the approve and reject glyphs.
func (w *Workflow) Request(ctx context.Context, trigger chat.MessageEvent, text string, action Action) (Pending, error) {
	if action == nil {
		return Pending{}, fmt.Errorf("request approval: nil action")
	}

	msgID, err := w.out.SendMessage(ctx, trigger.ChannelID, text)
	if err != nil {
		return Pending{}, fmt.Errorf("post confirmation: %w", err)
	}

	p := Pending{
		ID:          uuid.NewString(),
		MessageID:   msgID,
		ChannelID:   trigger.ChannelID,
		GuildID:     trigger.GuildID,
		RequesterID: trigger.AuthorID,
		Text:        text,
		Action:      action,
		CreatedAt:   time.Now().UTC(),
	}
	if err := w.store.Put(ctx, msgID, p); err != nil {
		return Pending{}, fmt.Errorf("store pending %s: %w", msgID, err)
	}

	for _, e := range []string{chat.EmojiApprove, chat.EmojiReject} {
		if err := w.out.AddReaction(ctx, trigger.ChannelID, msgID, e); err != nil {
			w.log.Warn().Err(err).Str("message", msgID).Str("emoji", e).Msg("failed to add reaction")
		}
	}

	w.log.Info().Str("id", p.ID).Str("message", msgID).Str("kind", action.Kind()).Str("requester", trigger.AuthorID).Msg("approval requested")
	return p, nil
}

// HandleReaction resolves the entry behind ev.MessageID if ev is a canonical
// glyph. It reports whether an entry was consumed.
func (w *Workflow) HandleReaction(ctx context.Context, ev chat.ReactionEvent) (bool, error) {
	if ev.Removed {
		return false, nil
	}
	emoji := chat.NormalizeEmoji(ev.Emoji)
	if emoji != chat.EmojiApprove && emoji != chat.EmojiReject {
		return false, nil
	}

	p, ok, err := w.store.Take(ctx, ev.MessageID)
	if err != nil {
		return false, fmt.Errorf("take %s: %w", ev.MessageID, err)
	}
	if !ok {
		return false, nil
	}

	link := chat.MessageLink(p.GuildID, p.ChannelID, p.MessageID)

	if emoji == chat.EmojiReject {
		w.log.Info().Str("id", p.ID).Str("user", ev.UserID).Msg("approval rejected")
		if err := w.out.EditMessage(ctx, p.ChannelID, p.MessageID, "~~"+p.Text+"~~"); err != nil {
			return true, fmt.Errorf("strike %s: %w", p.MessageID, err)
		}
		return true, nil
	}

	if err := w.execute(ctx, p.Action); err != nil {
		w.log.Error().Err(err).Str("id", p.ID).Str("kind", p.Action.Kind()).Msg("approved action failed")
		_, sendErr := w.out.SendMessage(ctx, p.ChannelID, fmt.Sprintf("Could not apply %s: %v", link, err))
		return true, sendErr
	}

	w.log.Info().Str("id", p.ID).Str("user", ev.UserID).Str("kind", p.Action.Kind()).Msg("approval applied")
	if _, err := w.out.SendMessage(ctx, p.ChannelID, fmt.Sprintf("%s applied %s", chat.UserMention(ev.UserID), link)); err != nil {
		return true, fmt.Errorf("confirm %s: %w", p.MessageID, err)
	}
	return true, nil
}

func (w *Workflow) execute(ctx context.Context, a Action) error {
	switch a := a.(type) {
	case ArchiveChannels:
		if w.exec == nil {
			return fmt.Errorf("no executor for %s", a.Kind())
		}
		return w.exec.ArchiveChannels(ctx, a)
	case ReorderChannels:
		if w.exec == nil {
			return fmt.Errorf("no executor for %s", a.Kind())
		}
		return w.exec.ReorderChannels(ctx, a)
	case Increment:
		w.tally.Add(a.Counter, a.By)
		return nil
	default:
		return fmt.Errorf("unsupported action %T", a)
	}
}
