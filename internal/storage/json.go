package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/keshon/rbot/datastore"
	"github.com/keshon/rbot/internal/role"
)

const (
	userKeyPrefix    = "user:"
	historyKeyPrefix = "history:"
)

// JSONStore keeps records in a datastore file.
type JSONStore struct {
	ds *datastore.DataStore

	// serializes read-modify-write of history lists
	historyMu sync.Mutex
}

func OpenJSON(path string) (*JSONStore, error) {
	if path == "" {
		path = "datastore.json"
	}
	ds, err := datastore.New(path)
	if err != nil {
		return nil, fmt.Errorf("open json store: %w", err)
	}
	return &JSONStore{ds: ds}, nil
}

func (s *JSONStore) Close() error {
	return s.ds.Close()
}

func (s *JSONStore) UserRole(_ context.Context, userID string) (role.Role, bool, error) {
	var rec UserRecord
	found, err := s.ds.Get(userKeyPrefix+userID, &rec)
	if err != nil || !found {
		return role.Guest, false, err
	}
	return rec.Role, true, nil
}

// SetUserRole stores r and writes the file right away; role changes do not
// wait for the periodic flush.
func (s *JSONStore) SetUserRole(_ context.Context, userID string, r role.Role) error {
	err := s.ds.Put(userKeyPrefix+userID, UserRecord{
		UserID:    userID,
		Role:      r,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.ds.Flush()
}

func (s *JSONStore) Users(_ context.Context) ([]UserRecord, error) {
	keys, err := s.ds.Keys(userKeyPrefix)
	if err != nil {
		return nil, err
	}

	users := make([]UserRecord, 0, len(keys))
	for _, k := range keys {
		var rec UserRecord
		if _, err := s.ds.Get(k, &rec); err != nil {
			return nil, err
		}
		if rec.UserID == "" {
			rec.UserID = strings.TrimPrefix(k, userKeyPrefix)
		}
		users = append(users, rec)
	}
	return users, nil
}

// AppendHistory appends a command history record for a guild, keeping only
// the most recent entries.
func (s *JSONStore) AppendHistory(_ context.Context, rec HistoryRecord) error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	key := historyKeyPrefix + rec.GuildID
	var list []HistoryRecord
	if _, err := s.ds.Get(key, &list); err != nil {
		return err
	}

	list = append(list, rec)
	if len(list) > commandHistoryLimit {
		list = list[len(list)-commandHistoryLimit:]
	}
	return s.ds.Put(key, list)
}

// History returns up to limit records, newest first.
func (s *JSONStore) History(_ context.Context, guildID string, limit int) ([]HistoryRecord, error) {
	var list []HistoryRecord
	if _, err := s.ds.Get(historyKeyPrefix+guildID, &list); err != nil {
		return nil, err
	}

	limit = clampLimit(limit)
	out := make([]HistoryRecord, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}
