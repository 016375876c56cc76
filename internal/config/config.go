package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	// Speed is the initial pacing setting (1-200).
	Speed int

	// DataDir is the root for downloaded assets (images per topic).
	DataDir string

	// DBPath is the SQLite database file. Empty means the default
	// resolution in the store package applies.
	DBPath string

	// MinQueueDepth is the builder's low watermark.
	MinQueueDepth int

	// MaxQueueDepth is the builder's high watermark.
	MaxQueueDepth int

	// RecordsPerLesson is how many records each lesson targets.
	RecordsPerLesson int

	// DequeueTimeout bounds each playback attempt to pull a lesson.
	DequeueTimeout time.Duration

	// BuilderShortPause is the breather between builds inside the
	// watermark band.
	BuilderShortPause time.Duration

	// BuilderIdlePause is the wait at the high watermark.
	BuilderIdlePause time.Duration

	// FetchTimeout bounds each HTTP request made by the fetcher.
	FetchTimeout time.Duration

	// Topics overrides the built-in topic catalogue when non-empty.
	Topics []string
}

// DefaultConfig returns a Config with recommended defaults.
func DefaultConfig() Config {
	return Config{
		Speed:             100,
		MinQueueDepth:     2,
		MaxQueueDepth:     5,
		RecordsPerLesson:  3,
		DequeueTimeout:    500 * time.Millisecond,
		BuilderShortPause: 2 * time.Second,
		BuilderIdlePause:  5 * time.Second,
		FetchTimeout:      15 * time.Second,
	}
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for unset values.
func FromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("CHESSFEED_SPEED"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Speed = n
		}
	}
	if v := os.Getenv("CHESSFEED_DATA"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CHESSFEED_DB"); v != "" {
		cfg.DBPath = v
	}
	return cfg
}

// ImagesDir returns the directory for downloaded images, creating it if
// needed. With no data dir configured it resolves under the XDG data
// home.
func (c Config) ImagesDir() (string, error) {
	root := c.DataDir
	if root == "" {
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataHome = filepath.Join(home, ".local", "share")
		}
		root = filepath.Join(dataHome, "chessfeed")
	}
	dir := filepath.Join(root, "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
