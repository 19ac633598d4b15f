// Package console is a chat.Messenger that prints to a terminal, used to run
// single commands without a gateway connection.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type Messenger struct {
	mu  sync.Mutex
	w   io.Writer
	seq int
}

func New(w io.Writer) *Messenger {
	return &Messenger{w: w}
}

func (m *Messenger) SendMessage(_ context.Context, channelID, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("console-%d", m.seq)
	_, err := fmt.Fprintf(m.w, "[%s] %s\n", channelID, text)
	return id, err
}

func (m *Messenger) AddReaction(_ context.Context, _, messageID, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := fmt.Fprintf(m.w, "(%s reacted %s)\n", messageID, emoji)
	return err
}

func (m *Messenger) EditMessage(_ context.Context, channelID, messageID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := fmt.Fprintf(m.w, "[%s] %s edited: %s\n", channelID, messageID, text)
	return err
}
