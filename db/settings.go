package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/miyasty1919/discordmaidbot/model"
)

// GuildSettings loads a guild's channel bindings, deny-list and flags. A
// guild with no rows gets empty bindings and submitter tracking on.
func (s *Store) GuildSettings(ctx context.Context, guildID string) (*model.GuildSettings, error) {
	gs := &model.GuildSettings{
		GuildID:         guildID,
		Channels:        make(map[model.Category]string),
		TrackSubmitters: true,
	}

	rows, err := s.db.QueryContext(ctx, "SELECT slot, channel_id FROM guild_channels WHERE guild_id = ?", guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var slot, channelID string
		if err := rows.Scan(&slot, &channelID); err != nil {
			return nil, err
		}
		if slot == model.LogSlot {
			gs.LogChannelID = channelID
			continue
		}
		gs.Channels[model.Category(slot)] = channelID
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if gs.DenyList, err = s.DeniedUsers(ctx, guildID); err != nil {
		return nil, err
	}

	var track bool
	err = s.db.QueryRowContext(ctx, "SELECT track_submitters FROM guild_flags WHERE guild_id = ?", guildID).Scan(&track)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		gs.TrackSubmitters = track
	}
	return gs, nil
}

// SetChannel binds slot (a category or the log slot) to channelID.
func (s *Store) SetChannel(ctx context.Context, guildID, slot, channelID string) error {
	if slot != model.LogSlot && !model.Category(slot).Valid() {
		return fmt.Errorf("unknown slot %q", slot)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO guild_channels (guild_id, slot, channel_id) VALUES (?, ?, ?)
		ON CONFLICT(guild_id, slot) DO UPDATE SET channel_id = excluded.channel_id`, guildID, slot, channelID)
	return err
}

// ToggleDenied adds userID to the deny-list, or removes it when already
// present. It reports whether the user is denied afterwards.
func (s *Store) ToggleDenied(ctx context.Context, guildID, userID, by string) (bool, error) {
	var denied bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM guild_deny_list WHERE guild_id = ? AND user_id = ?", guildID, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		denied = true
		_, err = tx.ExecContext(ctx, "INSERT INTO guild_deny_list (guild_id, user_id, added_by, created_at) VALUES (?, ?, ?, ?)",
			guildID, userID, by, time.Now().Unix())
		return err
	})
	return denied, err
}

// DeniedUsers lists the deny-list, oldest first.
func (s *Store) DeniedUsers(ctx context.Context, guildID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id FROM guild_deny_list WHERE guild_id = ? ORDER BY created_at, user_id", guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SetTrackSubmitters switches submitter markers on new entries.
func (s *Store) SetTrackSubmitters(ctx context.Context, guildID string, on bool) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO guild_flags (guild_id, track_submitters) VALUES (?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET track_submitters = excluded.track_submitters`, guildID, on)
	return err
}
