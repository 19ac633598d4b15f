package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/rbot/internal/approval"
	"github.com/keshon/rbot/internal/chat"
	"github.com/keshon/rbot/pkg/util"
)

// Channels lists the text channels and categories of a guild.
func (s *Session) Channels(ctx context.Context, guildID string) ([]chat.Channel, error) {
	chans, err := s.dg.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list channels of %s: %w", guildID, err)
	}

	out := make([]chat.Channel, 0, len(chans))
	for _, c := range chans {
		switch c.Type {
		case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildCategory:
		default:
			continue
		}
		ch := chat.Channel{
			ID:       c.ID,
			Name:     c.Name,
			ParentID: c.ParentID,
			Position: c.Position,
			Category: c.Type == discordgo.ChannelTypeGuildCategory,
		}
		if c.LastMessageID != "" {
			if ts, err := discordgo.SnowflakeTimestamp(c.LastMessageID); err == nil {
				ch.LastActivity = ts
			}
		}
		out = append(out, ch)
	}
	return out, nil
}

// archiveWorkers bounds concurrent channel edits.
const archiveWorkers = 4

// ArchiveChannels moves each channel under the archive category.
func (s *Session) ArchiveChannels(ctx context.Context, a approval.ArchiveChannels) error {
	return util.Parallel(ctx, a.ChannelIDs, archiveWorkers, func(ctx context.Context, id string) error {
		_, err := s.dg.ChannelEdit(id, &discordgo.ChannelEdit{ParentID: a.CategoryID}, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("archive %s: %w", id, err)
		}
		s.log.Info().Str("channel", id).Str("category", a.CategoryID).Msg("channel archived")
		return nil
	})
}

// ReorderChannels assigns consecutive positions following a.Order.
func (s *Session) ReorderChannels(ctx context.Context, a approval.ReorderChannels) error {
	positions := make([]*discordgo.Channel, len(a.Order))
	for i, id := range a.Order {
		positions[i] = &discordgo.Channel{ID: id, Position: i}
	}
	if err := s.dg.GuildChannelsReorder(a.GuildID, positions, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("reorder %s: %w", a.CategoryID, err)
	}
	return nil
}
