package builder

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/abiral/chessfeed/internal/content"
	"github.com/abiral/chessfeed/internal/lesson"
)

// Fetcher retrieves fresh records for a topic from the outside world.
// Implementations should respect ctx cancellation.
type Fetcher interface {
	FetchTopic(ctx context.Context, query, topic string, limit int) ([]*content.Record, error)
}

// Config holds builder tuning. Zero-value fields fall back to the defaults
// below.
type Config struct {
	// MinQueueDepth is the low watermark: below it the builder works
	// without pausing.
	MinQueueDepth int

	// MaxQueueDepth is the high watermark: at or above it the builder
	// idles instead of building.
	MaxQueueDepth int

	// RecordsPerLesson is how many records each assembled lesson targets.
	RecordsPerLesson int

	// ShortPause is the breather between builds while the queue sits
	// inside the watermark band.
	ShortPause time.Duration

	// IdlePause is the wait while the queue is at the high watermark.
	// A starvation nudge cuts it short.
	IdlePause time.Duration

	// Topics overrides the built-in topic catalogue.
	Topics []string

	// OnLesson, when set, is invoked after each enqueue with the lesson
	// and the records it was assembled from. Persistence hangs off this.
	OnLesson func(l *lesson.Lesson, records []*content.Record)

	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

const (
	defaultMinQueueDepth    = 2
	defaultMaxQueueDepth    = 5
	defaultRecordsPerLesson = 3
	defaultShortPause       = 2 * time.Second
	defaultIdlePause        = 5 * time.Second
)

// Builder is the producer loop: it keeps the lesson queue inside the
// watermark band by fetching fresh records, blending in cached ones, and
// enqueuing assembled lessons. Fetch failures degrade to cache-only
// lessons; the loop itself never stops on error.
type Builder struct {
	queue   *lesson.Queue
	cache   *content.Cache
	fetcher Fetcher
	topics  *TopicCycle
	cfg     Config
	log     *zap.Logger
	rng     *rand.Rand

	lessonsBuilt   atomic.Int64
	recordsFetched atomic.Int64
	fetchFailures  atomic.Int64

	// need carries at most one starvation nudge from the consumer side.
	need chan struct{}

	stop chan struct{}
	done chan struct{}
}

// NewBuilder creates a builder feeding q from fetcher and cache. rng
// drives topic phrasing and assembly and may be seeded in tests.
func NewBuilder(q *lesson.Queue, cache *content.Cache, fetcher Fetcher, rng *rand.Rand, cfg Config) *Builder {
	if cfg.MinQueueDepth <= 0 {
		cfg.MinQueueDepth = defaultMinQueueDepth
	}
	if cfg.MaxQueueDepth <= cfg.MinQueueDepth {
		cfg.MaxQueueDepth = cfg.MinQueueDepth + (defaultMaxQueueDepth - defaultMinQueueDepth)
	}
	if cfg.RecordsPerLesson <= 0 {
		cfg.RecordsPerLesson = defaultRecordsPerLesson
	}
	if cfg.ShortPause <= 0 {
		cfg.ShortPause = defaultShortPause
	}
	if cfg.IdlePause <= 0 {
		cfg.IdlePause = defaultIdlePause
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Builder{
		queue:   q,
		cache:   cache,
		fetcher: fetcher,
		topics:  NewTopicCycle(cfg.Topics, rng),
		cfg:     cfg,
		log:     cfg.Logger,
		rng:     rng,
		need:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// NeedContent signals that the consumer found the queue empty. The nudge
// cuts short whatever pause the builder is in. Never blocks.
func (b *Builder) NeedContent() {
	select {
	case b.need <- struct{}{}:
	default:
	}
}

// Run executes the build loop until Stop is called. It is meant to be
// launched on its own goroutine.
func (b *Builder) Run(ctx context.Context) {
	defer close(b.done)

	for {
		select {
		case <-b.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		depth := b.queue.Depth()
		switch {
		case depth < b.cfg.MinQueueDepth:
			b.buildOne(ctx)
		case depth < b.cfg.MaxQueueDepth:
			if !b.pause(b.cfg.ShortPause) {
				return
			}
			b.buildOne(ctx)
		default:
			if !b.pause(b.cfg.IdlePause) {
				return
			}
		}
	}
}

// Stop halts the loop and waits up to timeout for it to exit.
func (b *Builder) Stop(timeout time.Duration) {
	select {
	case <-b.stop:
	default:
		close(b.stop)
	}
	select {
	case <-b.done:
	case <-time.After(timeout):
		b.log.Warn("builder did not stop in time", zap.Duration("timeout", timeout))
	}
}

// BuildFromCache assembles and enqueues one lesson purely from cached
// records, without touching the network. Used at startup so playback can
// begin before the first fetch lands. Returns false when the cache is
// empty.
func (b *Builder) BuildFromCache() bool {
	records := b.takeCached(b.cfg.RecordsPerLesson, nil)
	if len(records) == 0 {
		return false
	}
	b.enqueue(records, records[0].Topic)
	return true
}

// LessonsBuilt returns the number of lessons enqueued so far.
func (b *Builder) LessonsBuilt() int64 { return b.lessonsBuilt.Load() }

// RecordsFetched returns the number of fresh records fetched so far.
func (b *Builder) RecordsFetched() int64 { return b.recordsFetched.Load() }

// FetchFailures returns the number of failed fetch attempts so far.
func (b *Builder) FetchFailures() int64 { return b.fetchFailures.Load() }

// buildOne runs a single fetch-blend-assemble-enqueue cycle. A failed or
// empty fetch falls back to cached records; with an empty cache too there
// is nothing to enqueue and the cycle is a no-op.
func (b *Builder) buildOne(ctx context.Context) {
	query, topic := b.topics.Next()
	b.log.Info("building lesson", zap.String("topic", topic), zap.String("query", query))

	var records []*content.Record
	fresh, err := b.fetcher.FetchTopic(ctx, query, topic, b.cfg.RecordsPerLesson)
	if err != nil {
		b.fetchFailures.Add(1)
		b.log.Warn("fetch failed, falling back to cache",
			zap.String("topic", topic), zap.Error(err))
	}
	for _, r := range fresh {
		if len(records) >= b.cfg.RecordsPerLesson {
			break
		}
		// Duplicates of already-cached records still count as used so
		// the recycle pass skips them for a while.
		b.cache.Add(r)
		b.cache.MarkUsed(r.ID)
		records = append(records, b.cache.Get(r.ID))
		b.recordsFetched.Add(1)
	}

	if shortfall := b.cfg.RecordsPerLesson - len(records); shortfall > 0 {
		records = append(records, b.takeCached(shortfall, records)...)
	}
	if len(records) == 0 {
		b.log.Warn("nothing to build a lesson from", zap.String("topic", topic))
		return
	}

	b.enqueue(records, topic)
}

// takeCached pulls up to n cached records, skipping any already in have.
func (b *Builder) takeCached(n int, have []*content.Record) []*content.Record {
	taken := make(map[string]struct{}, len(have))
	for _, r := range have {
		taken[r.ID] = struct{}{}
	}

	var out []*content.Record
	// Each NextUnused marks its pick used, so a bounded number of
	// attempts covers the duplicate-skip case without spinning.
	for attempts := 0; len(out) < n && attempts < n+len(taken); attempts++ {
		r := b.cache.NextUnused()
		if r == nil {
			break
		}
		if _, dup := taken[r.ID]; dup {
			continue
		}
		taken[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (b *Builder) enqueue(records []*content.Record, topic string) {
	l := lesson.Assemble(records, topic, b.rng)
	b.queue.Enqueue(l)
	b.lessonsBuilt.Add(1)
	b.log.Info("lesson enqueued",
		zap.String("lesson", l.ID),
		zap.String("topic", topic),
		zap.Int("records", len(records)),
		zap.Int("slides", len(l.Slides)),
		zap.Int("queue_depth", b.queue.Depth()))

	if b.cfg.OnLesson != nil {
		b.cfg.OnLesson(l, records)
	}
}

// pause waits for d, a starvation nudge, or shutdown. Returns false when
// the loop should exit.
func (b *Builder) pause(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-b.stop:
		return false
	case <-b.need:
		return true
	case <-timer.C:
		return true
	}
}
