package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Session is one run of the program, persisted at shutdown.
type Session struct {
	ID               string
	StartedAt        time.Time
	EndedAt          *time.Time
	SlidesShown      int64
	LessonsCompleted int64
	LessonsBuilt     int64
	RecordsFetched   int64
	TopicsSearched   int64
}

// Totals aggregates the counters across all stored sessions.
type Totals struct {
	Sessions         int64
	SlidesShown      int64
	LessonsCompleted int64
	LessonsBuilt     int64
	RecordsFetched   int64
	TopicsSearched   int64
}

// SessionRepo persists per-run statistics.
type SessionRepo interface {
	// Save upserts the session row.
	Save(ctx context.Context, s *Session) error

	// Recent returns up to limit sessions, newest first.
	Recent(ctx context.Context, limit int) ([]Session, error)

	// Totals sums the counters over every session.
	Totals(ctx context.Context) (Totals, error)
}

type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) Save(ctx context.Context, s *Session) error {
	var ended any
	if s.EndedAt != nil {
		ended = s.EndedAt.UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, ended_at, slides_shown,
			lessons_completed, lessons_built, records_fetched, topics_searched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			slides_shown = excluded.slides_shown,
			lessons_completed = excluded.lessons_completed,
			lessons_built = excluded.lessons_built,
			records_fetched = excluded.records_fetched,
			topics_searched = excluded.topics_searched`,
		s.ID, s.StartedAt.UTC(), ended, s.SlidesShown,
		s.LessonsCompleted, s.LessonsBuilt, s.RecordsFetched, s.TopicsSearched)
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *sessionRepo) Recent(ctx context.Context, limit int) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, slides_shown, lessons_completed,
			lessons_built, records_fetched, topics_searched
		FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			s     Session
			ended sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.StartedAt, &ended, &s.SlidesShown,
			&s.LessonsCompleted, &s.LessonsBuilt, &s.RecordsFetched,
			&s.TopicsSearched); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if ended.Valid {
			t := ended.Time
			s.EndedAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sessionRepo) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(slides_shown), 0),
			COALESCE(SUM(lessons_completed), 0),
			COALESCE(SUM(lessons_built), 0),
			COALESCE(SUM(records_fetched), 0),
			COALESCE(SUM(topics_searched), 0)
		FROM sessions`).Scan(&t.Sessions, &t.SlidesShown, &t.LessonsCompleted,
		&t.LessonsBuilt, &t.RecordsFetched, &t.TopicsSearched)
	if err != nil {
		return Totals{}, fmt.Errorf("session totals: %w", err)
	}
	return t, nil
}
