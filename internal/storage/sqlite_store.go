package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/fenrisbot/fenris/internal/chat"
	"github.com/fenrisbot/fenris/internal/roles"
)

// SQLiteStore is a RoleStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ RoleStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database
// and returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS role_configs (
			guild_id TEXT NOT NULL,
			name TEXT NOT NULL,
			emoji TEXT NOT NULL,
			multi_player INTEGER NOT NULL,
			masks_role INTEGER NOT NULL,
			extra_channels TEXT NOT NULL,
			PRIMARY KEY (guild_id, name),
			UNIQUE (guild_id, emoji)
		);`,
	)
	return err
}

func (s *SQLiteStore) LoadRoles(ctx context.Context, guild chat.GuildID) ([]roles.Config, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, emoji, multi_player, masks_role, extra_channels
		FROM role_configs
		WHERE guild_id = ?
		ORDER BY name`,
		string(guild),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []roles.Config
	for rows.Next() {
		var cfg roles.Config
		var extra string
		if err := rows.Scan(&cfg.Name, &cfg.Emoji, &cfg.MultiPlayer, &cfg.MasksRole, &extra); err != nil {
			return nil, err
		}
		if extra != "" {
			if err := json.Unmarshal([]byte(extra), &cfg.ExtraChannels); err != nil {
				return nil, err
			}
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SetRole(ctx context.Context, guild chat.GuildID, cfg roles.Config) error {
	var holder string
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM role_configs
		WHERE guild_id = ? AND emoji = ? AND name != ?`,
		string(guild), cfg.Emoji, cfg.Name,
	).Scan(&holder)
	switch {
	case err == nil:
		return ErrEmojiTaken
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	extra, err := json.Marshal(cfg.ExtraChannels)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO role_configs (guild_id, name, emoji, multi_player, masks_role, extra_channels)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (guild_id, name) DO UPDATE
		SET emoji = excluded.emoji,
			multi_player = excluded.multi_player,
			masks_role = excluded.masks_role,
			extra_channels = excluded.extra_channels`,
		string(guild), cfg.Name, cfg.Emoji, cfg.MultiPlayer, cfg.MasksRole, string(extra),
	)
	return err
}

func (s *SQLiteStore) RemoveRole(ctx context.Context, guild chat.GuildID, name string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM role_configs
		WHERE guild_id = ? AND name = ?`,
		string(guild), name,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRoleNotFound
	}
	return nil
}
