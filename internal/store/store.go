package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite connection and hands out repositories.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at dsn, applies the recommended
// pragmas, and creates the schema when missing.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRepo returns a RecordRepo backed by this store.
func (s *Store) RecordRepo() RecordRepo {
	return &recordRepo{db: s.db}
}

// LessonRepo returns a LessonRepo backed by this store.
func (s *Store) LessonRepo() LessonRepo {
	return &lessonRepo{db: s.db}
}

// SessionRepo returns a SessionRepo backed by this store.
func (s *Store) SessionRepo() SessionRepo {
	return &sessionRepo{db: s.db}
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	topic      TEXT NOT NULL,
	url        TEXT NOT NULL,
	excerpts   TEXT NOT NULL,
	images     TEXT NOT NULL,
	used       INTEGER NOT NULL DEFAULT 0,
	fetched_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_topic ON records(topic);

CREATE TABLE IF NOT EXISTS lessons (
	id           TEXT PRIMARY KEY,
	topic        TEXT NOT NULL,
	title        TEXT NOT NULL,
	slide_count  INTEGER NOT NULL,
	sources      TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	completed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_lessons_created ON lessons(created_at);

CREATE TABLE IF NOT EXISTS sessions (
	id                TEXT PRIMARY KEY,
	started_at        TIMESTAMP NOT NULL,
	ended_at          TIMESTAMP,
	slides_shown      INTEGER NOT NULL DEFAULT 0,
	lessons_completed INTEGER NOT NULL DEFAULT 0,
	lessons_built     INTEGER NOT NULL DEFAULT 0,
	records_fetched   INTEGER NOT NULL DEFAULT 0,
	topics_searched   INTEGER NOT NULL DEFAULT 0
);
`

func createSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// DefaultDBPath resolves the database file path in priority order:
// 1. CHESSFEED_DB environment variable
// 2. $XDG_DATA_HOME/chessfeed/chessfeed.db
// 3. ~/.local/share/chessfeed/chessfeed.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("CHESSFEED_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "chessfeed", "chessfeed.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
