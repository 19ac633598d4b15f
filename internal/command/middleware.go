package command

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/rbot/internal/storage"
)

// Middleware wraps a command, usually its Handler.
type Middleware func(Command) Command

// Apply applies middlewares in order; the first in the list is the innermost.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}

// HistoryRecorder stores executed commands.
type HistoryRecorder interface {
	AppendHistory(ctx context.Context, rec storage.HistoryRecord) error
}

// WithHistory records every execution that reached the handler. Recording
// failures are logged and never change the command result.
func WithHistory(rec HistoryRecorder, logger zerolog.Logger) Middleware {
	return func(c Command) Command {
		inner := c.Handler
		name := c.Name
		c.Handler = HandlerFunc(func(ctx context.Context, inv *Invocation) (string, error) {
			out, err := inner.Execute(ctx, inv)

			if inv.Message.GuildID != "" {
				e := rec.AppendHistory(ctx, storage.HistoryRecord{
					GuildID:   inv.Message.GuildID,
					ChannelID: inv.Message.ChannelID,
					UserID:    inv.Message.AuthorID,
					Username:  inv.Message.AuthorName,
					Command:   name,
					Args:      strings.Join(inv.Params(), " "),
					Datetime:  time.Now().UTC(),
				})
				if e != nil {
					logger.Warn().Err(e).Str("command", name).Msg("failed to record command")
				}
			}
			return out, err
		})
		return c
	}
}

// WithTiming logs how long each execution took at debug level.
func WithTiming(logger zerolog.Logger) Middleware {
	return func(c Command) Command {
		inner := c.Handler
		name := c.Name
		c.Handler = HandlerFunc(func(ctx context.Context, inv *Invocation) (string, error) {
			start := time.Now()
			out, err := inner.Execute(ctx, inv)
			logger.Debug().
				Str("command", name).
				Str("user", inv.Message.AuthorID).
				Dur("took", time.Since(start)).
				Bool("failed", err != nil).
				Msg("command executed")
			return out, err
		})
		return c
	}
}
