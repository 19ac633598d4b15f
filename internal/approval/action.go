package approval

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is a one-shot effect waiting for approval. The set of actions is
// closed; Workflow executes them with a type switch.
type Action interface {
	Kind() string
	Describe() string
	isAction()
}

// ArchiveChannels moves channels into an archive category.
type ArchiveChannels struct {
	GuildID    string   `json:"guild_id"`
	CategoryID string   `json:"category_id"`
	ChannelIDs []string `json:"channel_ids"`
}

// ReorderChannels applies a new position order to the channels of a category.
type ReorderChannels struct {
	GuildID    string   `json:"guild_id"`
	CategoryID string   `json:"category_id"`
	Order      []string `json:"order"`
}

// Increment bumps an in-process counter.
type Increment struct {
	Counter string `json:"counter"`
	By      int    `json:"by"`
}

func (ArchiveChannels) Kind() string { return "archive_channels" }
func (ReorderChannels) Kind() string { return "reorder_channels" }
func (Increment) Kind() string       { return "increment" }

func (a ArchiveChannels) Describe() string {
	mentions := make([]string, len(a.ChannelIDs))
	for i, id := range a.ChannelIDs {
		mentions[i] = "<#" + id + ">"
	}
	return fmt.Sprintf("archive %d channel(s): %s", len(a.ChannelIDs), strings.Join(mentions, " "))
}

func (a ReorderChannels) Describe() string {
	mentions := make([]string, len(a.Order))
	for i, id := range a.Order {
		mentions[i] = fmt.Sprintf("%d. <#%s>", i+1, id)
	}
	return "reorder channels:\n" + strings.Join(mentions, "\n")
}

func (a Increment) Describe() string {
	return fmt.Sprintf("increment %s by %d", a.Counter, a.By)
}

func (ArchiveChannels) isAction() {}
func (ReorderChannels) isAction() {}
func (Increment) isAction()       {}

type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func encodeAction(a Action) (json.RawMessage, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: a.Kind(), Data: data})
}

func decodeAction(raw []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	var (
		a   Action
		err error
	)
	switch env.Kind {
	case ArchiveChannels{}.Kind():
		var v ArchiveChannels
		err = json.Unmarshal(env.Data, &v)
		a = v
	case ReorderChannels{}.Kind():
		var v ReorderChannels
		err = json.Unmarshal(env.Data, &v)
		a = v
	case Increment{}.Kind():
		var v Increment
		err = json.Unmarshal(env.Data, &v)
		a = v
	default:
		return nil, fmt.Errorf("unknown action kind %q", env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
	}
	return a, nil
}
