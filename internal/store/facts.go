package store

import (
	"context"
	"fmt"

	"github.com/rcliao/village-memory/internal/model"
)

// LoadFacts returns every fact, newest mention first.
func (s *SQLiteStore) LoadFacts(ctx context.Context) ([]model.MemoryFact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+factColumns()+` FROM memory_facts ORDER BY last_mentioned_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []model.MemoryFact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// UpsertFact inserts or replaces one fact.
func (s *SQLiteStore) UpsertFact(ctx context.Context, f model.MemoryFact) error {
	return upsertFact(ctx, s.db, f)
}

// ReplaceFacts swaps the whole collection in one transaction.
func (s *SQLiteStore) ReplaceFacts(ctx context.Context, facts []model.MemoryFact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_facts`); err != nil {
		return fmt.Errorf("clear facts: %w", err)
	}
	for _, f := range facts {
		if err := upsertFact(ctx, tx, f); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ClearFacts deletes every fact.
func (s *SQLiteStore) ClearFacts(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memory_facts`)
	return err
}

func upsertFact(ctx context.Context, db execer, f model.MemoryFact) error {
	tags, err := marshalJSON(f.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	anchors, err := nullableJSON(f.Anchors)
	if err != nil {
		return fmt.Errorf("encode anchors: %w", err)
	}
	links, err := nullableJSON(f.Links)
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}
	var threadSeq *int
	if f.ThreadSequence > 0 {
		threadSeq = &f.ThreadSequence
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO memory_facts (`+factColumns()+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   npc_id = excluded.npc_id, type = excluded.type, content = excluded.content,
		   tags = excluded.tags, salience = excluded.salience, mentions = excluded.mentions,
		   status = excluded.status, thread_id = excluded.thread_id,
		   thread_sequence = excluded.thread_sequence, anchors = excluded.anchors,
		   links = excluded.links, created_at = excluded.created_at,
		   last_mentioned_at = excluded.last_mentioned_at`,
		f.ID, f.NpcID, string(f.Type), f.Content, tags, f.Salience, f.Mentions,
		nullString(string(f.Status)), nullString(f.ThreadID), threadSeq, anchors, links,
		formatTime(f.CreatedAt), formatTime(f.LastMentionedAt))
	if err != nil {
		return fmt.Errorf("upsert fact %s: %w", f.ID, err)
	}
	return nil
}
