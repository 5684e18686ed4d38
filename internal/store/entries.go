package store

import (
	"context"
	"fmt"

	"github.com/rcliao/village-memory/internal/model"
)

// LoadEntries returns the conversation log, oldest first.
func (s *SQLiteStore) LoadEntries(ctx context.Context) ([]model.ConversationEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, npc_id, day_index, timestamp, speaker, text
		 FROM conversation_entries ORDER BY timestamp, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ConversationEntry
	for rows.Next() {
		var e model.ConversationEntry
		var ts, speaker string
		if err := rows.Scan(&e.ID, &e.NpcID, &e.DayIndex, &ts, &speaker, &e.Text); err != nil {
			return nil, err
		}
		e.Timestamp = parseTime(ts)
		e.Speaker = model.Speaker(speaker)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AppendEntry stores one entry. Re-appending an id overwrites it.
func (s *SQLiteStore) AppendEntry(ctx context.Context, e model.ConversationEntry) error {
	return insertEntry(ctx, s.db, e)
}

// ReplaceEntries swaps the whole log in one transaction.
func (s *SQLiteStore) ReplaceEntries(ctx context.Context, entries []model.ConversationEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	for _, e := range entries {
		if err := insertEntry(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ClearEntries deletes the whole log.
func (s *SQLiteStore) ClearEntries(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversation_entries`)
	return err
}

func insertEntry(ctx context.Context, db execer, e model.ConversationEntry) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO conversation_entries (id, npc_id, day_index, timestamp, speaker, text)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.NpcID, e.DayIndex, formatTime(e.Timestamp), string(e.Speaker), e.Text)
	if err != nil {
		return fmt.Errorf("insert entry %s: %w", e.ID, err)
	}
	return nil
}
