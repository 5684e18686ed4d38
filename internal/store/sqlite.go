package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/village-memory/internal/model"
)

const timeLayout = time.RFC3339Nano

// SQLiteStore implements Storage using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Storage = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memory_facts (
		id                TEXT PRIMARY KEY,
		npc_id            TEXT NOT NULL,
		type              TEXT NOT NULL,
		content           TEXT NOT NULL,
		tags              TEXT NOT NULL DEFAULT '[]',
		salience          REAL NOT NULL,
		mentions          INTEGER NOT NULL DEFAULT 1,
		status            TEXT,
		thread_id         TEXT,
		thread_sequence   INTEGER,
		anchors           TEXT,
		links             TEXT,
		created_at        TEXT NOT NULL,
		last_mentioned_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_facts_npc ON memory_facts(npc_id);
	CREATE INDEX IF NOT EXISTS idx_facts_thread ON memory_facts(thread_id);
	CREATE INDEX IF NOT EXISTS idx_facts_last_mentioned ON memory_facts(last_mentioned_at DESC);

	CREATE TABLE IF NOT EXISTS conversation_entries (
		id        TEXT PRIMARY KEY,
		npc_id    TEXT NOT NULL,
		day_index INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		speaker   TEXT NOT NULL,
		text      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_npc ON conversation_entries(npc_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_entries_day ON conversation_entries(day_index);

	CREATE TABLE IF NOT EXISTS settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullableJSON[T any](v []T) (*string, error) {
	if len(v) == 0 {
		return nil, nil
	}
	s, err := marshalJSON(v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func factColumns() string {
	return `id, npc_id, type, content, tags, salience, mentions, status, thread_id,
	        thread_sequence, anchors, links, created_at, last_mentioned_at`
}

func scanFact(row scanner) (model.MemoryFact, error) {
	var f model.MemoryFact
	var typ, tags, createdAt, lastMentioned string
	var status, threadID, anchors, links sql.NullString
	var threadSeq sql.NullInt64

	err := row.Scan(
		&f.ID, &f.NpcID, &typ, &f.Content, &tags, &f.Salience, &f.Mentions,
		&status, &threadID, &threadSeq, &anchors, &links, &createdAt, &lastMentioned,
	)
	if err != nil {
		return f, err
	}

	f.Type = model.FactType(typ)
	f.CreatedAt = parseTime(createdAt)
	f.LastMentionedAt = parseTime(lastMentioned)
	if err := json.Unmarshal([]byte(tags), &f.Tags); err != nil {
		return f, fmt.Errorf("decode tags of %s: %w", f.ID, err)
	}
	if status.Valid {
		f.Status = model.Status(status.String)
	}
	if threadID.Valid {
		f.ThreadID = threadID.String
	}
	if threadSeq.Valid {
		f.ThreadSequence = int(threadSeq.Int64)
	}
	if anchors.Valid {
		if err := json.Unmarshal([]byte(anchors.String), &f.Anchors); err != nil {
			return f, fmt.Errorf("decode anchors of %s: %w", f.ID, err)
		}
	}
	if links.Valid {
		if err := json.Unmarshal([]byte(links.String), &f.Links); err != nil {
			return f, fmt.Errorf("decode links of %s: %w", f.ID, err)
		}
	}
	return f, nil
}
