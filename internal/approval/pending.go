package approval

import (
	"encoding/json"
	"time"
)

// Pending is an action waiting for a reaction on its confirmation message.
type Pending struct {
	ID          string
	MessageID   string
	ChannelID   string
	GuildID     string
	RequesterID string
	Text        string
	Action      Action
	CreatedAt   time.Time
}

type pendingJSON struct {
	ID          string          `json:"id"`
	MessageID   string          `json:"message_id"`
	ChannelID   string          `json:"channel_id"`
	GuildID     string          `json:"guild_id"`
	RequesterID string          `json:"requester_id"`
	Text        string          `json:"text"`
	Action      json.RawMessage `json:"action"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (p Pending) MarshalJSON() ([]byte, error) {
	action, err := encodeAction(p.Action)
	if err != nil {
		return nil, err
	}
	return json.Marshal(pendingJSON{
		ID:          p.ID,
		MessageID:   p.MessageID,
		ChannelID:   p.ChannelID,
		GuildID:     p.GuildID,
		RequesterID: p.RequesterID,
		Text:        p.Text,
		Action:      action,
		CreatedAt:   p.CreatedAt,
	})
}

func (p *Pending) UnmarshalJSON(b []byte) error {
	var raw pendingJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	action, err := decodeAction(raw.Action)
	if err != nil {
		return err
	}
	*p = Pending{
		ID:          raw.ID,
		MessageID:   raw.MessageID,
		ChannelID:   raw.ChannelID,
		GuildID:     raw.GuildID,
		RequesterID: raw.RequesterID,
		Text:        raw.Text,
		Action:      action,
		CreatedAt:   raw.CreatedAt,
	}
	return nil
}
