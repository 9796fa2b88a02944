package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

var tables = []struct {
	name string
	ddl  string
}{
	{"guild_channels", `
	CREATE TABLE IF NOT EXISTS guild_channels (
		guild_id TEXT NOT NULL,
		slot TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		PRIMARY KEY (guild_id, slot)
	);`},
	{"guild_deny_list", `
	CREATE TABLE IF NOT EXISTS guild_deny_list (
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		added_by TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (guild_id, user_id)
	);`},
	{"guild_flags", `
	CREATE TABLE IF NOT EXISTS guild_flags (
		guild_id TEXT PRIMARY KEY,
		track_submitters INTEGER NOT NULL DEFAULT 1
	);`},
	// 用于顺序 ID 生成
	{"id_counter", `
	CREATE TABLE IF NOT EXISTS id_counter (
		counter_name TEXT PRIMARY KEY,
		current_value INTEGER NOT NULL DEFAULT 0
	);`},
	{"anon_posts", `
	CREATE TABLE IF NOT EXISTS anon_posts (
		guild_id TEXT NOT NULL,
		post_id INTEGER NOT NULL,
		channel_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_tag TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (guild_id, post_id)
	);`},
	{"anon_posts_user_idx", `
	CREATE INDEX IF NOT EXISTS anon_posts_user_idx ON anon_posts (guild_id, user_id, created_at);`},
	{"anon_panels", `
	CREATE TABLE IF NOT EXISTS anon_panels (
		channel_id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		kind TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`},
	{"role_keep", `
	CREATE TABLE IF NOT EXISTS role_keep (
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role_id TEXT NOT NULL,
		PRIMARY KEY (guild_id, user_id, role_id)
	);`},
	{"bot_meta", `
	CREATE TABLE IF NOT EXISTS bot_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`},
}

// createTables 如果数据库中不存在必要的表，则创建它们
func (s *Store) createTables(ctx context.Context) error {
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", t.name, err)
		}
	}
	s.logger.Debug("database tables initialized", zap.Int("count", len(tables)))
	return nil
}
