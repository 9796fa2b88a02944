package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/miyasty1919/discordmaidbot/model"
)

// ErrNoRows is returned by single-row lookups that find nothing.
var ErrNoRows = sql.ErrNoRows

// RecordAnonPost assigns the guild's next post number and logs who posted.
func (s *Store) RecordAnonPost(ctx context.Context, p model.AnonPost) (int64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if id, err = nextID(tx, "anon_post:"+p.GuildID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO anon_posts
			(guild_id, post_id, channel_id, user_id, user_tag, mode, kind, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.GuildID, id, p.ChannelID, p.UserID, p.UserTag, string(p.Mode), string(p.Kind), p.CreatedAt.Unix())
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AnonPost returns the log line for a post number.
func (s *Store) AnonPost(ctx context.Context, guildID string, postID int64) (*model.AnonPost, error) {
	var (
		p       = model.AnonPost{GuildID: guildID, PostID: postID}
		mode    string
		kind    string
		created int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT channel_id, user_id, user_tag, mode, kind, created_at
		FROM anon_posts WHERE guild_id = ? AND post_id = ?`, guildID, postID).
		Scan(&p.ChannelID, &p.UserID, &p.UserTag, &mode, &kind, &created)
	if err != nil {
		return nil, err
	}
	p.Mode, p.Kind = model.AnonMode(mode), model.AnonKind(kind)
	p.CreatedAt = time.Unix(created, 0)
	return &p, nil
}

// LastAnonPostAt returns when userID last posted in the guild, or the zero
// time.
func (s *Store) LastAnonPostAt(ctx context.Context, guildID, userID string) (time.Time, error) {
	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(created_at) FROM anon_posts WHERE guild_id = ? AND user_id = ?", guildID, userID).Scan(&ts)
	if err != nil || !ts.Valid {
		return time.Time{}, err
	}
	return time.Unix(ts.Int64, 0), nil
}

// SaveAnonPanel remembers the panel message currently shown in a channel.
func (s *Store) SaveAnonPanel(ctx context.Context, p model.AnonPanel) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO anon_panels (channel_id, message_id, mode, kind, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET message_id = excluded.message_id, mode = excluded.mode,
			kind = excluded.kind, updated_at = excluded.updated_at`,
		p.ChannelID, p.MessageID, string(p.Mode), string(p.Kind), p.UpdatedAt.Unix())
	return err
}

// AnonPanel returns the panel for a channel, or nil.
func (s *Store) AnonPanel(ctx context.Context, channelID string) (*model.AnonPanel, error) {
	var (
		p          = model.AnonPanel{ChannelID: channelID}
		mode, kind string
		updated    int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT message_id, mode, kind, updated_at FROM anon_panels WHERE channel_id = ?", channelID).
		Scan(&p.MessageID, &mode, &kind, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Mode, p.Kind = model.AnonMode(mode), model.AnonKind(kind)
	p.UpdatedAt = time.Unix(updated, 0)
	return &p, nil
}
