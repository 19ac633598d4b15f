// Package chattest provides in-memory chat collaborators for tests.
package chattest

import (
	"context"
	"fmt"
	"sync"
)

type Message struct {
	ChannelID string
	MessageID string
	Text      string
}

type Reaction struct {
	ChannelID string
	MessageID string
	Emoji     string
}

// Recorder is a chat.Messenger that records every outbound call.
type Recorder struct {
	// Err, when set, is returned by every call.
	Err error

	mu        sync.Mutex
	seq       int
	sent      []Message
	reactions []Reaction
	edits     []Message
}

func (r *Recorder) SendMessage(_ context.Context, channelID, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	r.seq++
	id := fmt.Sprintf("m%d", r.seq)
	r.sent = append(r.sent, Message{ChannelID: channelID, MessageID: id, Text: text})
	return id, nil
}

func (r *Recorder) AddReaction(_ context.Context, channelID, messageID, emoji string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.reactions = append(r.reactions, Reaction{ChannelID: channelID, MessageID: messageID, Emoji: emoji})
	return nil
}

func (r *Recorder) EditMessage(_ context.Context, channelID, messageID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.edits = append(r.edits, Message{ChannelID: channelID, MessageID: messageID, Text: text})
	return nil
}

func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

func (r *Recorder) Reactions() []Reaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Reaction(nil), r.reactions...)
}

func (r *Recorder) Edits() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.edits...)
}

// Texts returns the text of every sent message in order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, m := range r.sent {
		out[i] = m.Text
	}
	return out
}

// Directory is a chat.Directory backed by a map of user id to role ids.
type Directory struct {
	mu    sync.Mutex
	roles map[string][]string
	Err   error
}

func NewDirectory() *Directory {
	return &Directory{roles: make(map[string][]string)}
}

func (d *Directory) Set(userID string, roleIDs ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles[userID] = roleIDs
}

func (d *Directory) MemberRoles(_ context.Context, _, userID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	return append([]string(nil), d.roles[userID]...), nil
}
