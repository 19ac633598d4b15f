// /internal/storage/storage.go
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/keshon/rbot/internal/role"
)

const commandHistoryLimit int = 20

// Store persists what the bot must remember across restarts: each user's
// authorization tier and a short per-guild command history.
type Store interface {
	UserRole(ctx context.Context, userID string) (role.Role, bool, error)
	SetUserRole(ctx context.Context, userID string, r role.Role) error
	Users(ctx context.Context) ([]UserRecord, error)

	AppendHistory(ctx context.Context, rec HistoryRecord) error
	History(ctx context.Context, guildID string, limit int) ([]HistoryRecord, error)

	Close() error
}

type UserRecord struct {
	UserID    string    `json:"user_id"`
	Role      role.Role `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

type HistoryRecord struct {
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Args      string    `json:"args"`
	Datetime  time.Time `json:"datetime"`
}

// Open returns the store selected by driver: "json" (default) or "sqlite".
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(driver) {
	case "", "json":
		return OpenJSON(path)
	case "sqlite", "sqlite3":
		return OpenSQLite(SQLiteConfig{Path: path})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > commandHistoryLimit {
		return commandHistoryLimit
	}
	return limit
}
