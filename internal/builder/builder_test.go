package builder

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abiral/chessfeed/internal/content"
	"github.com/abiral/chessfeed/internal/lesson"
)

// fakeFetcher serves canned records per call and counts invocations.
type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	err   error
	serve func(call int, topic string) []*content.Record
}

func (f *fakeFetcher) FetchTopic(_ context.Context, _, topic string, _ int) ([]*content.Record, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.serve == nil {
		return nil, nil
	}
	return f.serve(call, topic), nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testRecord(topic string, n int) *content.Record {
	url := fmt.Sprintf("https://example.com/%s/%d", topic, n)
	return &content.Record{
		ID:       content.RecordID(url),
		Title:    fmt.Sprintf("%s part %d", topic, n),
		Topic:    topic,
		URL:      url,
		Excerpts: []string{"first excerpt", "second excerpt"},
	}
}

func fastConfig() Config {
	return Config{
		MinQueueDepth:    2,
		MaxQueueDepth:    4,
		RecordsPerLesson: 2,
		ShortPause:       time.Millisecond,
		IdlePause:        50 * time.Millisecond,
		Topics:           []string{"chess opening principles", "chess endgame techniques"},
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestBuilderFillsToHighWatermark(t *testing.T) {
	q := lesson.NewQueue()
	cache := content.NewCache(rand.New(rand.NewSource(1)))
	f := &fakeFetcher{serve: func(call int, topic string) []*content.Record {
		return []*content.Record{testRecord(topic, call)}
	}}

	b := NewBuilder(q, cache, f, rand.New(rand.NewSource(1)), fastConfig())
	go b.Run(context.Background())
	defer b.Stop(time.Second)

	waitFor(t, 2*time.Second, func() bool { return q.Depth() >= 4 })

	// At the high watermark the builder idles; depth must not keep
	// climbing past it.
	time.Sleep(20 * time.Millisecond)
	if d := q.Depth(); d > 4 {
		t.Errorf("queue depth %d exceeds high watermark 4", d)
	}
	if b.LessonsBuilt() < 4 {
		t.Errorf("lessons built = %d, want >= 4", b.LessonsBuilt())
	}
}

func TestBuilderNeedContentCutsIdleShort(t *testing.T) {
	q := lesson.NewQueue()
	cache := content.NewCache(rand.New(rand.NewSource(1)))
	f := &fakeFetcher{serve: func(call int, topic string) []*content.Record {
		return []*content.Record{testRecord(topic, call)}
	}}

	cfg := fastConfig()
	cfg.IdlePause = time.Hour
	b := NewBuilder(q, cache, f, rand.New(rand.NewSource(1)), cfg)
	go b.Run(context.Background())
	defer b.Stop(time.Second)

	waitFor(t, 2*time.Second, func() bool { return q.Depth() >= cfg.MaxQueueDepth })

	// Drain below the low watermark, then nudge. Without the nudge the
	// builder would sit in the hour-long idle pause.
	for q.Depth() > 0 {
		q.DequeueNext(10 * time.Millisecond)
	}
	before := b.LessonsBuilt()
	b.NeedContent()

	waitFor(t, 2*time.Second, func() bool { return b.LessonsBuilt() > before })
}

func TestBuilderFallsBackToCacheOnFetchError(t *testing.T) {
	q := lesson.NewQueue()
	cache := content.NewCache(rand.New(rand.NewSource(1)))
	cache.Add(testRecord("chess pawn structure", 1))
	cache.Add(testRecord("chess pawn structure", 2))

	f := &fakeFetcher{err: errors.New("network down")}
	b := NewBuilder(q, cache, f, rand.New(rand.NewSource(1)), fastConfig())
	go b.Run(context.Background())
	defer b.Stop(time.Second)

	waitFor(t, 2*time.Second, func() bool { return q.Depth() >= 1 })

	if b.FetchFailures() == 0 {
		t.Error("fetch failures not counted")
	}
	l, ok := q.DequeueNext(10 * time.Millisecond)
	if !ok {
		t.Fatal("no lesson enqueued from cache fallback")
	}
	if len(l.Sources) != 2 {
		t.Errorf("cache-only lesson has %d sources, want 2", len(l.Sources))
	}
}

func TestBuilderNoopWhenNothingAvailable(t *testing.T) {
	q := lesson.NewQueue()
	cache := content.NewCache(rand.New(rand.NewSource(1)))
	f := &fakeFetcher{err: errors.New("network down")}

	b := NewBuilder(q, cache, f, rand.New(rand.NewSource(1)), fastConfig())
	go b.Run(context.Background())

	waitFor(t, 2*time.Second, func() bool { return f.callCount() >= 3 })
	b.Stop(time.Second)

	if d := q.Depth(); d != 0 {
		t.Errorf("queue depth = %d, want 0 with no content sources", d)
	}
	if b.LessonsBuilt() != 0 {
		t.Errorf("lessons built = %d, want 0", b.LessonsBuilt())
	}
}

func TestBuilderBlendsFreshWithCached(t *testing.T) {
	q := lesson.NewQueue()
	cache := content.NewCache(rand.New(rand.NewSource(1)))
	cached := testRecord("king safety chess", 99)
	cache.Add(cached)

	// One fresh record per fetch against a two-record lesson target
	// forces a cache blend.
	f := &fakeFetcher{serve: func(call int, topic string) []*content.Record {
		return []*content.Record{testRecord(topic, call)}
	}}
	b := NewBuilder(q, cache, f, rand.New(rand.NewSource(1)), fastConfig())
	go b.Run(context.Background())
	defer b.Stop(time.Second)

	waitFor(t, 2*time.Second, func() bool { return q.Depth() >= 1 })

	l, ok := q.DequeueNext(10 * time.Millisecond)
	if !ok {
		t.Fatal("expected a lesson")
	}
	if len(l.Sources) != 2 {
		t.Fatalf("lesson has %d sources, want 2", len(l.Sources))
	}
	found := false
	for _, src := range l.Sources {
		if src == cached.URL {
			found = true
		}
	}
	if !found {
		t.Error("cached record was not blended into the lesson")
	}
}

func TestBuildFromCache(t *testing.T) {
	q := lesson.NewQueue()
	cache := content.NewCache(rand.New(rand.NewSource(1)))

	b := NewBuilder(q, cache, &fakeFetcher{}, rand.New(rand.NewSource(1)), fastConfig())
	if b.BuildFromCache() {
		t.Error("BuildFromCache reported success on an empty cache")
	}

	cache.Add(testRecord("chess tactics puzzles", 1))
	cache.Add(testRecord("chess tactics puzzles", 2))
	if !b.BuildFromCache() {
		t.Fatal("BuildFromCache failed with records cached")
	}
	if q.Depth() != 1 {
		t.Errorf("queue depth = %d, want 1", q.Depth())
	}
	if got := cache.UsedCount(); got != 2 {
		t.Errorf("used count = %d, want 2", got)
	}
}

func TestBuilderOnLessonHook(t *testing.T) {
	q := lesson.NewQueue()
	cache := content.NewCache(rand.New(rand.NewSource(1)))
	f := &fakeFetcher{serve: func(call int, topic string) []*content.Record {
		return []*content.Record{testRecord(topic, call), testRecord(topic, call+1000)}
	}}

	var mu sync.Mutex
	var seen []*lesson.Lesson
	cfg := fastConfig()
	cfg.OnLesson = func(l *lesson.Lesson, records []*content.Record) {
		mu.Lock()
		seen = append(seen, l)
		mu.Unlock()
	}
	b := NewBuilder(q, cache, f, rand.New(rand.NewSource(1)), cfg)
	go b.Run(context.Background())
	defer b.Stop(time.Second)

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 1
	})

	mu.Lock()
	defer mu.Unlock()
	if seen[0].Status != lesson.StatusPending {
		t.Errorf("hook lesson status = %v, want pending", seen[0].Status)
	}
}

func TestTopicCycleRoundRobin(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tc := NewTopicCycle([]string{"a topic", "b topic", "c topic"}, rng)

	var bases []string
	for i := 0; i < 6; i++ {
		_, base := tc.Next()
		bases = append(bases, base)
	}
	want := []string{"a topic", "b topic", "c topic", "a topic", "b topic", "c topic"}
	for i := range want {
		if bases[i] != want[i] {
			t.Fatalf("cycle order %v, want %v", bases, want)
		}
	}
}

func TestTopicCycleQueryContainsTopic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tc := NewTopicCycle(nil, rng)
	if tc.Len() != len(DefaultTopics) {
		t.Fatalf("default cycle has %d topics, want %d", tc.Len(), len(DefaultTopics))
	}
	for i := 0; i < 20; i++ {
		query, base := tc.Next()
		if !strings.Contains(query, base) {
			t.Errorf("query %q does not contain its base topic %q", query, base)
		}
	}
}
