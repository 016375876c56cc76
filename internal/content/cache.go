package content

import (
	"math/rand"
	"sync"
)

// Cache holds fetched records in memory and tracks which ones have already
// been consumed by a lesson. It is safe for concurrent use.
//
// The used set guarantees no full replay of content: NextUnused never
// returns a record whose id is in the set — until the set covers the whole
// cache, at which point it is cleared and recycling begins. The cache never
// runs dry as long as it holds at least one record.
type Cache struct {
	mu      sync.Mutex
	records map[string]*Record
	order   []string
	used    map[string]struct{}
	rng     *rand.Rand

	// onRecycle, when set, fires after the used set clears on
	// exhaustion. Persistence mirrors its used flags through this.
	onRecycle func()
}

// NewCache creates an empty cache. rng drives the random pick in NextUnused
// and may be seeded deterministically in tests.
func NewCache(rng *rand.Rand) *Cache {
	return &Cache{
		records: make(map[string]*Record),
		used:    make(map[string]struct{}),
		rng:     rng,
	}
}

// Add inserts a record. Returns false if a record with the same id is
// already cached.
func (c *Cache) Add(r *Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[r.ID]; ok {
		return false
	}
	c.records[r.ID] = r
	c.order = append(c.order, r.ID)
	return true
}

// Get returns the record with the given id, or nil.
func (c *Cache) Get(id string) *Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records[id]
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// UsedCount returns the size of the used set.
func (c *Cache) UsedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.used)
}

// All returns a snapshot of every cached record in insertion order.
func (c *Cache) All() []*Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id])
	}
	return out
}

// MarkUsed adds the id to the used set. Unknown ids are ignored.
func (c *Cache) MarkUsed(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[id]; ok {
		c.used[id] = struct{}{}
	}
}

// OnRecycle registers fn to run each time the used set clears on
// exhaustion. fn is called outside the cache lock, so it may call back
// into the cache.
func (c *Cache) OnRecycle(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRecycle = fn
}

// NextUnused picks a random record not yet in the used set, marks it used,
// and returns it. When every cached record has been used, the set is
// cleared and recycling begins, so the set holds at most one id
// immediately afterwards. Returns nil only when the cache is empty.
func (c *Cache) NextUnused() *Record {
	c.mu.Lock()

	if len(c.records) == 0 {
		c.mu.Unlock()
		return nil
	}
	recycled := false
	if len(c.used) >= len(c.records) {
		c.used = make(map[string]struct{})
		recycled = true
	}

	candidates := make([]string, 0, len(c.order)-len(c.used))
	for _, id := range c.order {
		if _, ok := c.used[id]; !ok {
			candidates = append(candidates, id)
		}
	}
	id := candidates[c.rng.Intn(len(candidates))]
	c.used[id] = struct{}{}
	r := c.records[id]
	hook := c.onRecycle
	c.mu.Unlock()

	if recycled && hook != nil {
		hook()
	}
	return r
}
