package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abiral/chessfeed/internal/lesson"
)

// LessonSummary is the archived shape of a lesson. Slides themselves are
// not kept; they are rebuilt from records on demand.
type LessonSummary struct {
	ID          string
	Topic       string
	Title       string
	SlideCount  int
	Sources     []string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// LessonRepo archives built lessons, capped to a recent window.
type LessonRepo interface {
	// Save inserts the lesson summary. Saving an id twice is a no-op.
	Save(ctx context.Context, l *lesson.Lesson) error

	// MarkCompleted stamps the lesson's completion time.
	MarkCompleted(ctx context.Context, id string, at time.Time) error

	// Recent returns up to limit lessons, newest first.
	Recent(ctx context.Context, limit int) ([]LessonSummary, error)

	// Prune deletes all but the keep most recent lessons.
	Prune(ctx context.Context, keep int) error

	// Count returns the number of archived lessons.
	Count(ctx context.Context) (int, error)
}

type lessonRepo struct {
	db *sql.DB
}

func (r *lessonRepo) Save(ctx context.Context, l *lesson.Lesson) error {
	sources, err := json.Marshal(l.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO lessons (id, topic, title, slide_count, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.Topic, l.Title, len(l.Slides), string(sources), l.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save lesson %s: %w", l.ID, err)
	}
	return nil
}

func (r *lessonRepo) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE lessons SET completed_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark completed %s: %w", id, err)
	}
	return nil
}

func (r *lessonRepo) Recent(ctx context.Context, limit int) ([]LessonSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, topic, title, slide_count, sources, created_at, completed_at
		FROM lessons ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()

	var out []LessonSummary
	for rows.Next() {
		var (
			s         LessonSummary
			sources   string
			completed sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.Topic, &s.Title, &s.SlideCount,
			&sources, &s.CreatedAt, &completed); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &s.Sources); err != nil {
			return nil, fmt.Errorf("decode sources %s: %w", s.ID, err)
		}
		if completed.Valid {
			t := completed.Time
			s.CompletedAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *lessonRepo) Prune(ctx context.Context, keep int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM lessons WHERE id NOT IN (
			SELECT id FROM lessons ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("prune lessons: %w", err)
	}
	return nil
}

func (r *lessonRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&n)
	return n, err
}
