package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/keshon/rbot/internal/role"
)

type SQLiteConfig struct {
	Path        string
	JournalMode string
	BusyTimeout int
}

// SQLiteStore keeps records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	user_id    TEXT PRIMARY KEY,
	role       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS command_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	guild_id   TEXT NOT NULL,
	channel_id TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	username   TEXT NOT NULL,
	command    TEXT NOT NULL,
	args       TEXT NOT NULL,
	datetime   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_command_history_guild ON command_history (guild_id, id);
`

// OpenSQLite opens or creates the database and applies the schema.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/rbot.db"
	}
	if cfg.JournalMode == "" {
		cfg.JournalMode = "WAL"
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5000
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=%s&_busy_timeout=%d", cfg.Path, cfg.JournalMode, cfg.BusyTimeout)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", cfg.Path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UserRole(ctx context.Context, userID string) (role.Role, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE user_id = ?`, userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return role.Guest, false, nil
	}
	if err != nil {
		return role.Guest, false, fmt.Errorf("query role: %w", err)
	}

	r, err := role.Parse(name)
	if err != nil {
		return role.Guest, true, err
	}
	return r, true, nil
}

func (s *SQLiteStore) SetUserRole(ctx context.Context, userID string, r role.Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, role, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET role = excluded.role, updated_at = excluded.updated_at`,
		userID, r.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Users(ctx context.Context) ([]UserRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, role, updated_at FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		var (
			rec  UserRecord
			name string
		)
		if err := rows.Scan(&rec.UserID, &name, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if rec.Role, err = role.Parse(name); err != nil {
			return nil, err
		}
		users = append(users, rec)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) AppendHistory(ctx context.Context, rec HistoryRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO command_history (guild_id, channel_id, user_id, username, command, args, datetime)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.GuildID, rec.ChannelID, rec.UserID, rec.Username, rec.Command, rec.Args, rec.Datetime.UTC())
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM command_history WHERE guild_id = ? AND id NOT IN (
			SELECT id FROM command_history WHERE guild_id = ? ORDER BY id DESC LIMIT ?
		)`, rec.GuildID, rec.GuildID, commandHistoryLimit)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) History(ctx context.Context, guildID string, limit int) ([]HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, channel_id, user_id, username, command, args, datetime
		FROM command_history WHERE guild_id = ? ORDER BY id DESC LIMIT ?`,
		guildID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryRecord
	for rows.Next() {
		var rec HistoryRecord
		if err := rows.Scan(&rec.GuildID, &rec.ChannelID, &rec.UserID, &rec.Username, &rec.Command, &rec.Args, &rec.Datetime); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
