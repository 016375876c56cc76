package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/abiral/chessfeed/internal/content"
	"github.com/abiral/chessfeed/internal/lesson"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(n int) *content.Record {
	url := fmt.Sprintf("https://example.com/article/%d", n)
	return &content.Record{
		ID:        content.RecordID(url),
		Title:     fmt.Sprintf("Article %d", n),
		Topic:     "chess opening principles",
		URL:       url,
		Excerpts:  []string{"control the center", "develop the pieces"},
		Images:    []string{"/tmp/img/a.png"},
		FetchedAt: time.Date(2025, 1, 1, 0, 0, n, 0, time.UTC),
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is skipped here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestRecordSaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	repo := s.RecordRepo()
	ctx := t.Context()

	if err := repo.Save(ctx, testRecord(1), false); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, testRecord(2), true); err != nil {
		t.Fatalf("save: %v", err)
	}

	records, used, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("loaded %d records, want 2", len(records))
	}
	if len(used) != 1 || !used[testRecord(2).ID] {
		t.Errorf("used set = %v, want only record 2", used)
	}

	got := records[0]
	want := testRecord(1)
	if got.Title != want.Title || got.Topic != want.Topic || got.URL != want.URL {
		t.Errorf("record fields round-trip mismatch: %+v", got)
	}
	if len(got.Excerpts) != 2 || got.Excerpts[0] != "control the center" {
		t.Errorf("excerpts = %v", got.Excerpts)
	}
	if len(got.Images) != 1 {
		t.Errorf("images = %v", got.Images)
	}
}

func TestRecordSaveIsUpsert(t *testing.T) {
	s := openTestStore(t)
	repo := s.RecordRepo()
	ctx := t.Context()

	rec := testRecord(1)
	if err := repo.Save(ctx, rec, false); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec.Title = "Revised Title"
	if err := repo.Save(ctx, rec, false); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1 after upsert", n)
	}
	records, _, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if records[0].Title != "Revised Title" {
		t.Errorf("title = %q after upsert", records[0].Title)
	}
}

func TestRecordUsedFlags(t *testing.T) {
	s := openTestStore(t)
	repo := s.RecordRepo()
	ctx := t.Context()

	for n := 1; n <= 3; n++ {
		if err := repo.Save(ctx, testRecord(n), n == 2); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	_, used, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(used) != 1 {
		t.Fatalf("used set size = %d, want 1", len(used))
	}

	if err := repo.ResetUsed(ctx); err != nil {
		t.Fatalf("reset used: %v", err)
	}
	_, used, err = repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(used) != 0 {
		t.Errorf("used set size = %d after reset, want 0", len(used))
	}
}

func archivedLesson(n int) *lesson.Lesson {
	return &lesson.Lesson{
		ID:        fmt.Sprintf("lesson-%03d", n),
		Title:     fmt.Sprintf("Lesson %d", n),
		Topic:     "chess endgame techniques",
		Slides:    make([]lesson.Slide, 5),
		Sources:   []string{"https://example.com/a"},
		CreatedAt: time.Date(2025, 1, 1, 0, 0, n, 0, time.UTC),
	}
}

func TestLessonArchive(t *testing.T) {
	s := openTestStore(t)
	repo := s.LessonRepo()
	ctx := t.Context()

	if err := repo.Save(ctx, archivedLesson(1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Saving the same id again must not duplicate.
	if err := repo.Save(ctx, archivedLesson(1)); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}

	done := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	if err := repo.MarkCompleted(ctx, "lesson-001", done); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	recent, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("recent = %d rows, want 1", len(recent))
	}
	if recent[0].SlideCount != 5 {
		t.Errorf("slide count = %d, want 5", recent[0].SlideCount)
	}
	if recent[0].CompletedAt == nil || !recent[0].CompletedAt.Equal(done) {
		t.Errorf("completed at = %v, want %v", recent[0].CompletedAt, done)
	}
}

func TestLessonPruneKeepsNewest(t *testing.T) {
	s := openTestStore(t)
	repo := s.LessonRepo()
	ctx := t.Context()

	for n := 1; n <= 10; n++ {
		if err := repo.Save(ctx, archivedLesson(n)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := repo.Prune(ctx, 3); err != nil {
		t.Fatalf("prune: %v", err)
	}

	recent, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("kept %d lessons, want 3", len(recent))
	}
	if recent[0].ID != "lesson-010" {
		t.Errorf("newest kept = %s, want lesson-010", recent[0].ID)
	}
	if recent[2].ID != "lesson-008" {
		t.Errorf("oldest kept = %s, want lesson-008", recent[2].ID)
	}
}

func TestSessionSaveAndTotals(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := t.Context()

	first := &Session{
		ID:               "run-1",
		StartedAt:        time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		SlidesShown:      40,
		LessonsCompleted: 3,
		LessonsBuilt:     4,
		RecordsFetched:   12,
		TopicsSearched:   5,
	}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Update the same run at shutdown.
	ended := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	first.EndedAt = &ended
	first.SlidesShown = 55
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}

	second := &Session{ID: "run-2", StartedAt: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC), SlidesShown: 5}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	recent, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d rows, want 2", len(recent))
	}
	if recent[0].ID != "run-2" {
		t.Errorf("newest session = %s, want run-2", recent[0].ID)
	}
	if recent[1].EndedAt == nil || !recent[1].EndedAt.Equal(ended) {
		t.Errorf("run-1 ended at = %v, want %v", recent[1].EndedAt, ended)
	}

	totals, err := repo.Totals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Sessions != 2 {
		t.Errorf("sessions = %d, want 2", totals.Sessions)
	}
	if totals.SlidesShown != 60 {
		t.Errorf("slides shown total = %d, want 60", totals.SlidesShown)
	}
	if totals.LessonsCompleted != 3 {
		t.Errorf("lessons completed total = %d, want 3", totals.LessonsCompleted)
	}
}
