package lesson

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/abiral/chessfeed/internal/content"
)

func testLesson(t *testing.T, topic string) *Lesson {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	r := &content.Record{
		ID:       content.RecordID("https://example.com/" + topic),
		Title:    "Test article",
		Topic:    topic,
		URL:      "https://example.com/" + topic,
		Excerpts: []string{"one", "two"},
	}
	return Assemble([]*content.Record{r}, topic, rng)
}

func TestEnqueueDequeueOrder(t *testing.T) {
	q := NewQueue()
	a := testLesson(t, "openings")
	b := testLesson(t, "endgames")
	c := testLesson(t, "tactics")
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	if q.Depth() != 3 {
		t.Fatalf("depth = %d, want 3", q.Depth())
	}

	for i, want := range []*Lesson{a, b, c} {
		got, ok := q.DequeueNext(100 * time.Millisecond)
		if !ok {
			t.Fatalf("dequeue %d timed out", i)
		}
		if got != want {
			t.Fatalf("dequeue %d returned wrong lesson", i)
		}
		if got.Status != StatusPlaying {
			t.Fatalf("dequeue %d status = %s, want playing", i, got.Status)
		}
	}
}

func TestDequeueTimeoutBounds(t *testing.T) {
	q := NewQueue()
	const timeout = 200 * time.Millisecond

	start := time.Now()
	l, ok := q.DequeueNext(timeout)
	elapsed := time.Since(start)

	if ok || l != nil {
		t.Fatal("expected empty result from empty queue")
	}
	if elapsed < timeout {
		t.Errorf("returned after %v, sooner than timeout %v", elapsed, timeout)
	}
	if elapsed > timeout+150*time.Millisecond {
		t.Errorf("returned after %v, much later than timeout %v", elapsed, timeout)
	}
	if q.CompletedCount() != 0 {
		t.Errorf("completed count = %d, want 0", q.CompletedCount())
	}
}

func TestDequeueIsCommitPoint(t *testing.T) {
	q := NewQueue()
	a := testLesson(t, "openings")
	b := testLesson(t, "endgames")
	q.Enqueue(a)
	q.Enqueue(b)

	first, ok := q.DequeueNext(time.Second)
	if !ok {
		t.Fatal("first dequeue timed out")
	}
	// a is current and playing; nothing completed yet.
	if q.Current() != first || q.CompletedCount() != 0 {
		t.Fatal("current/completed bookkeeping wrong after first dequeue")
	}

	second, ok := q.DequeueNext(time.Second)
	if !ok {
		t.Fatal("second dequeue timed out")
	}
	if first.Status != StatusCompleted {
		t.Errorf("first lesson status = %s, want completed", first.Status)
	}
	if q.CompletedCount() != 1 {
		t.Errorf("completed count = %d, want 1", q.CompletedCount())
	}
	if q.Current() != second {
		t.Error("current not set to second lesson")
	}
}

func TestTimeoutStillCommitsCurrent(t *testing.T) {
	q := NewQueue()
	q.Enqueue(testLesson(t, "openings"))

	l, ok := q.DequeueNext(time.Second)
	if !ok {
		t.Fatal("dequeue timed out")
	}

	// Queue now empty; the timed-out dequeue must still finalize l.
	if _, ok := q.DequeueNext(50 * time.Millisecond); ok {
		t.Fatal("expected timeout on empty queue")
	}
	if l.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", l.Status)
	}
	if q.CompletedCount() != 1 {
		t.Errorf("completed count = %d, want 1", q.CompletedCount())
	}
	if q.Current() != nil {
		t.Error("current not cleared")
	}
}

func TestCompletedCountAfterNDequeues(t *testing.T) {
	q := NewQueue()
	const n = 7
	for i := 0; i < n; i++ {
		q.Enqueue(testLesson(t, "tactics"))
	}
	// n dequeues play out n lessons; one final call commits the last.
	for i := 0; i <= n; i++ {
		q.DequeueNext(10 * time.Millisecond)
	}
	if q.CompletedCount() != n {
		t.Fatalf("completed count = %d, want %d", q.CompletedCount(), n)
	}
}

func TestDequeueWakesOnConcurrentEnqueue(t *testing.T) {
	q := NewQueue()
	l := testLesson(t, "openings")

	var wg sync.WaitGroup
	wg.Add(1)
	var got *Lesson
	var ok bool
	go func() {
		defer wg.Done()
		got, ok = q.DequeueNext(2 * time.Second)
	}()

	time.Sleep(50 * time.Millisecond)
	q.Enqueue(l)
	wg.Wait()

	if !ok || got != l {
		t.Fatal("consumer did not receive lesson enqueued during wait")
	}
}

func TestCompletedLogCapped(t *testing.T) {
	q := NewQueue()
	for i := 0; i < completedLogCap+20; i++ {
		q.Enqueue(testLesson(t, "openings"))
		q.DequeueNext(10 * time.Millisecond)
	}
	// Commit the final current lesson.
	q.DequeueNext(10 * time.Millisecond)

	if n := len(q.Completed()); n != completedLogCap {
		t.Fatalf("completed log size = %d, want %d", n, completedLogCap)
	}
	if q.CompletedCount() != completedLogCap+20 {
		t.Fatalf("completed count = %d, want %d", q.CompletedCount(), completedLogCap+20)
	}
}
