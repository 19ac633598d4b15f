// Package deployment forwards deployment approvals collected through chat
// reactions to the deployment supervisor.
package deployment

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keshon/rbot/internal/approval"
	"github.com/keshon/rbot/internal/chat"
)

// Approval is a deployment waiting for an approver's reaction.
type Approval struct {
	ID           string    `json:"id"`
	DeploymentID string    `json:"deployment_id"`
	MessageID    string    `json:"message_id"`
	ChannelID    string    `json:"channel_id"`
	GuildID      string    `json:"guild_id"`
	Summary      string    `json:"summary"`
	RequestedBy  string    `json:"requested_by"`
	ApproveEmoji string    `json:"approve_emoji"`
	RejectEmoji  string    `json:"reject_emoji"`
	CreatedAt    time.Time `json:"created_at"`
}

type Config struct {
	// ApproverRoles lists the guild role ids allowed to decide.
	ApproverRoles []string
	ApproveEmoji  string
	RejectEmoji   string
}

// Bridge owns the deployment prompts. An entry is claimed only by an
// authorized reactor and is put back when the supervisor call fails.
type Bridge struct {
	store      approval.Store[Approval]
	out        chat.Messenger
	dir        chat.Directory
	supervisor Supervisor
	cfg        Config
	log        zerolog.Logger
}

func NewBridge(store approval.Store[Approval], out chat.Messenger, dir chat.Directory, sup Supervisor, cfg Config, logger zerolog.Logger) *Bridge {
	if cfg.ApproveEmoji == "" {
		cfg.ApproveEmoji = chat.EmojiApprove
	}
	if cfg.RejectEmoji == "" {
		cfg.RejectEmoji = chat.EmojiReject
	}
	return &Bridge{
		store:      store,
		out:        out,
		dir:        dir,
		supervisor: sup,
		cfg:        cfg,
		log:        logger.With().Str("component", "deployment").Logger(),
	}
}

// Open posts a deployment prompt in channelID and tracks it.
func (b *Bridge) Open(ctx context.Context, channelID, guildID, deploymentID, summary, requestedBy string) (Approval, error) {
	text := fmt.Sprintf("Deployment `%s` is waiting for approval", deploymentID)
	if summary != "" {
		text += ":\n" + summary
	}
	text += fmt.Sprintf("\nReact with %s to approve or %s to reject.", b.cfg.ApproveEmoji, b.cfg.RejectEmoji)

	msgID, err := b.out.SendMessage(ctx, channelID, text)
	if err != nil {
		return Approval{}, fmt.Errorf("post deployment prompt: %w", err)
	}

	a := Approval{
		ID:           uuid.NewString(),
		DeploymentID: deploymentID,
		MessageID:    msgID,
		ChannelID:    channelID,
		GuildID:      guildID,
		Summary:      summary,
		RequestedBy:  requestedBy,
		ApproveEmoji: b.cfg.ApproveEmoji,
		RejectEmoji:  b.cfg.RejectEmoji,
		CreatedAt:    time.Now().UTC(),
	}
	if err := b.store.Put(ctx, msgID, a); err != nil {
		return Approval{}, fmt.Errorf("store deployment %s: %w", deploymentID, err)
	}

	for _, e := range []string{a.ApproveEmoji, a.RejectEmoji} {
		if err := b.out.AddReaction(ctx, channelID, msgID, e); err != nil {
			b.log.Warn().Err(err).Str("message", msgID).Str("emoji", e).Msg("failed to add reaction")
		}
	}

	b.log.Info().Str("deployment", deploymentID).Str("message", msgID).Msg("deployment approval opened")
	return a, nil
}

// HandleReaction forwards the decision behind ev if ev comes from an
// approver. It reports whether the entry was resolved.
func (b *Bridge) HandleReaction(ctx context.Context, ev chat.ReactionEvent) (bool, error) {
	if ev.Removed {
		return false, nil
	}

	a, ok, err := b.store.Peek(ctx, ev.MessageID)
	if err != nil {
		return false, fmt.Errorf("peek %s: %w", ev.MessageID, err)
	}
	if !ok {
		return false, nil
	}

	var approve bool
	switch chat.NormalizeEmoji(ev.Emoji) {
	case a.ApproveEmoji:
		approve = true
	case a.RejectEmoji:
		approve = false
	default:
		return false, nil
	}

	logger := b.log.With().Str("deployment", a.DeploymentID).Str("user", ev.UserID).Bool("approve", approve).Logger()

	allowed, err := b.isApprover(ctx, a.GuildID, ev.UserID)
	if err != nil {
		logger.Warn().Err(err).Msg("could not check approver roles")
		return false, nil
	}
	if !allowed {
		logger.Warn().Msg("reaction from a user who is not an approver")
		return false, nil
	}

	a, ok, err = b.store.Take(ctx, ev.MessageID)
	if err != nil {
		return false, fmt.Errorf("take %s: %w", ev.MessageID, err)
	}
	if !ok {
		return false, nil
	}

	err = b.supervisor.Decide(ctx, Decision{DeploymentID: a.DeploymentID, Approve: approve, DecidedBy: ev.UserID})
	if err != nil {
		logger.Error().Err(err).Msg("supervisor call failed, deployment stays pending")
		if perr := b.store.Put(ctx, a.MessageID, a); perr != nil {
			logger.Error().Err(perr).Msg("could not restore pending deployment")
		}
		return false, nil
	}

	verdict := "approved"
	if !approve {
		verdict = "rejected"
	}
	logger.Info().Msg("deployment decision forwarded")

	text := fmt.Sprintf("%s %s deployment `%s`", chat.UserMention(ev.UserID), verdict, a.DeploymentID)
	if _, err := b.out.SendMessage(ctx, a.ChannelID, text); err != nil {
		return true, fmt.Errorf("confirm deployment %s: %w", a.DeploymentID, err)
	}
	return true, nil
}

// Pending reports how many deployments wait for a decision.
func (b *Bridge) Pending(ctx context.Context) (int, error) {
	return b.store.Len(ctx)
}

func (b *Bridge) isApprover(ctx context.Context, guildID, userID string) (bool, error) {
	if len(b.cfg.ApproverRoles) == 0 {
		return false, nil
	}
	roles, err := b.dir.MemberRoles(ctx, guildID, userID)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(roles, func(r string) bool {
		return slices.Contains(b.cfg.ApproverRoles, r)
	}), nil
}
