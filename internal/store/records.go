package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abiral/chessfeed/internal/content"
)

// RecordRepo persists content records so the cache survives restarts.
type RecordRepo interface {
	// Save upserts a record with its used flag.
	Save(ctx context.Context, r *content.Record, used bool) error

	// ResetUsed clears the used flag on every record. Called when the
	// in-memory used set recycles.
	ResetUsed(ctx context.Context) error

	// All returns every record plus the set of used ids.
	All(ctx context.Context) ([]*content.Record, map[string]bool, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

type recordRepo struct {
	db *sql.DB
}

func (r *recordRepo) Save(ctx context.Context, rec *content.Record, used bool) error {
	excerpts, err := json.Marshal(rec.Excerpts)
	if err != nil {
		return fmt.Errorf("marshal excerpts: %w", err)
	}
	images, err := json.Marshal(rec.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO records (id, title, topic, url, excerpts, images, used, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			excerpts = excluded.excerpts,
			images = excluded.images,
			used = excluded.used`,
		rec.ID, rec.Title, rec.Topic, rec.URL, string(excerpts), string(images),
		boolToInt(used), rec.FetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}
	return nil
}

func (r *recordRepo) ResetUsed(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE records SET used = 0`)
	if err != nil {
		return fmt.Errorf("reset used: %w", err)
	}
	return nil
}

func (r *recordRepo) All(ctx context.Context) ([]*content.Record, map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, topic, url, excerpts, images, used, fetched_at
		FROM records ORDER BY fetched_at, id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []*content.Record
	used := make(map[string]bool)
	for rows.Next() {
		var (
			rec       content.Record
			excerpts  string
			images    string
			usedFlag  int
			fetchedAt time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Topic, &rec.URL,
			&excerpts, &images, &usedFlag, &fetchedAt); err != nil {
			return nil, nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(excerpts), &rec.Excerpts); err != nil {
			return nil, nil, fmt.Errorf("decode excerpts %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(images), &rec.Images); err != nil {
			return nil, nil, fmt.Errorf("decode images %s: %w", rec.ID, err)
		}
		rec.FetchedAt = fetchedAt
		if usedFlag != 0 {
			used[rec.ID] = true
		}
		records = append(records, &rec)
	}
	return records, used, rows.Err()
}

func (r *recordRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
