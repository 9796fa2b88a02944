package db

import (
	"database/sql"
	"errors"
)

// nextID 在事务中检索计数器的当前值并将其加一。
func nextID(tx *sql.Tx, name string) (int64, error) {
	var current int64
	err := tx.QueryRow("SELECT current_value FROM id_counter WHERE counter_name = ?", name).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	next := current + 1
	_, err = tx.Exec(`INSERT INTO id_counter (counter_name, current_value) VALUES (?, ?)
		ON CONFLICT(counter_name) DO UPDATE SET current_value = excluded.current_value`, name, next)
	if err != nil {
		return 0, err
	}
	return next, nil
}
