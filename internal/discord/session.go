// Package discord adapts a discordgo session to the chat interfaces used by
// the rest of the bot.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/rbot/internal/chat"
)

const eventBuffer = 256

// Session forwards gateway events as chat events and implements
// chat.Messenger, chat.Directory and approval.Executor on top of discordgo.
type Session struct {
	dg  *discordgo.Session
	log zerolog.Logger

	events chan chat.Event
	done   chan struct{}

	mu    sync.RWMutex
	botID string
}

func New(token string, logger zerolog.Logger) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Session{
		dg:     dg,
		log:    logger.With().Str("component", "discord").Logger(),
		events: make(chan chat.Event, eventBuffer),
		done:   make(chan struct{}),
	}, nil
}

// Events delivers inbound messages and reactions until Run returns.
func (s *Session) Events() <-chan chat.Event { return s.events }

// BotID is the bot's own user id, known once the gateway is ready.
func (s *Session) BotID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.botID
}

// Run opens the gateway and blocks until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.dg.AddHandler(s.onReady)
	s.dg.AddHandler(s.onMessageCreate)
	s.dg.AddHandler(s.onReactionAdd)
	s.dg.AddHandler(s.onReactionRemove)

	if err := s.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	s.log.Info().Msg("gateway connected")

	<-ctx.Done()
	close(s.done)
	s.log.Info().Msg("shutdown signal received, closing gateway")
	return s.dg.Close()
}

func (s *Session) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	s.mu.Lock()
	s.botID = r.User.ID
	s.mu.Unlock()
	s.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("ready")
}

func (s *Session) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.BotID() {
		return
	}
	s.push(chat.Event{Message: &chat.MessageEvent{
		Content:    m.Content,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		MessageID:  m.ID,
		AuthorBot:  m.Author.Bot,
	}})
}

func (s *Session) onReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	s.pushReaction(r.MessageReaction, false)
}

func (s *Session) onReactionRemove(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
	s.pushReaction(r.MessageReaction, true)
}

func (s *Session) pushReaction(r *discordgo.MessageReaction, removed bool) {
	if r == nil || r.UserID == s.BotID() {
		return
	}
	s.push(chat.Event{Reaction: &chat.ReactionEvent{
		Emoji:     emojiName(r.Emoji),
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		GuildID:   r.GuildID,
		UserID:    r.UserID,
		Removed:   removed,
	}})
}

func (s *Session) push(ev chat.Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// emojiName is the unicode glyph for standard emoji and name:id for custom ones.
func emojiName(e discordgo.Emoji) string {
	if e.ID == "" {
		return e.Name
	}
	return e.APIName()
}
