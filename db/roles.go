package db

import (
	"context"
	"database/sql"

	"github.com/miyasty1919/discordmaidbot/model"
)

// SaveRoleKeep replaces the remembered roles of a member.
func (s *Store) SaveRoleKeep(ctx context.Context, k model.RoleKeep) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM role_keep WHERE guild_id = ? AND user_id = ?", k.GuildID, k.UserID); err != nil {
			return err
		}
		for _, roleID := range k.RoleIDs {
			if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO role_keep (guild_id, user_id, role_id) VALUES (?, ?, ?)",
				k.GuildID, k.UserID, roleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// TakeRoleKeep returns and forgets the remembered roles of a member.
func (s *Store) TakeRoleKeep(ctx context.Context, guildID, userID string) (*model.RoleKeep, error) {
	k := &model.RoleKeep{GuildID: guildID, UserID: userID}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT role_id FROM role_keep WHERE guild_id = ? AND user_id = ? ORDER BY role_id", guildID, userID)
		if err != nil {
			return err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			k.RoleIDs = append(k.RoleIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM role_keep WHERE guild_id = ? AND user_id = ?", guildID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return k, nil
}
