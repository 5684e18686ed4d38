package store

import "log/slog"

// MemoryPath selects the in-memory backend.
const MemoryPath = ":memory:"

// Open returns a SQLite store at path. When the database cannot be opened
// the game keeps running on an in-memory store and logs why.
func Open(path string, logger *slog.Logger) Storage {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" || path == MemoryPath {
		return NewMemStorage()
	}
	s, err := NewSQLiteStore(path)
	if err != nil {
		logger.Warn("persistence unavailable, using in-memory store", "path", path, "err", err)
		return NewMemStorage()
	}
	return s
}
