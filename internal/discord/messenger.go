package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

func (s *Session) SendMessage(ctx context.Context, channelID, text string) (string, error) {
	msg, err := s.dg.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return msg.ID, nil
}

func (s *Session) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := s.dg.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("react %s on %s: %w", emoji, messageID, err)
	}
	return nil
}

func (s *Session) EditMessage(ctx context.Context, channelID, messageID, text string) error {
	if _, err := s.dg.ChannelMessageEdit(channelID, messageID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit %s: %w", messageID, err)
	}
	return nil
}

// MemberRoles returns the role ids of a guild member, preferring the state cache.
func (s *Session) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	if m, err := s.dg.State.Member(guildID, userID); err == nil {
		return m.Roles, nil
	}
	m, err := s.dg.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch member %s: %w", userID, err)
	}
	return m.Roles, nil
}
