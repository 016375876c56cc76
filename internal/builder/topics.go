package builder

import (
	"fmt"
	"math/rand"
	"sync"
)

// DefaultTopics is the built-in catalogue of chess study topics, ordered
// roughly from beginner material to advanced concepts. The cycle walks it
// round-robin so every topic gets search coverage over time.
var DefaultTopics = []string{
	"chess basics for beginners",
	"how to play chess rules",
	"chess piece movements tutorial",
	"chess opening principles",
	"basic chess tactics",
	"chess checkmate patterns beginners",

	"chess opening theory",
	"chess middlegame strategy",
	"chess endgame techniques",
	"chess tactics puzzles",
	"positional chess concepts",
	"chess pawn structure",

	"advanced chess strategy grandmaster",
	"chess calculation techniques",
	"chess prophylaxis strategy",
	"complex chess endgames",
	"chess sacrifices combinations",
	"famous chess games analysis",

	"sicilian defense chess",
	"ruy lopez opening",
	"queen's gambit chess",
	"italian game chess",
	"french defense chess",
	"caro-kann defense",

	"magnus carlsen games analysis",
	"bobby fischer best games",
	"garry kasparov chess",
	"mikhail tal attacking chess",
	"anatoly karpov positional chess",

	"chess piece activity",
	"king safety chess",
	"chess initiative tempo",
	"weak squares chess strategy",
	"chess outpost strategy",
	"chess exchange sacrifice",
}

// phrasings are the query variants applied to a base topic so repeated
// passes over the catalogue do not issue identical searches.
var phrasings = []string{
	"%s",
	"%s tutorial",
	"%s guide",
	"%s lesson",
	"%s examples",
	"learn %s",
	"%s explained",
}

// TopicCycle hands out search queries by walking a topic list round-robin
// and wrapping each topic in a randomly chosen phrasing. Safe for
// concurrent use.
type TopicCycle struct {
	mu     sync.Mutex
	topics []string
	next   int
	rng    *rand.Rand
}

// NewTopicCycle builds a cycle over topics. An empty list falls back to
// DefaultTopics.
func NewTopicCycle(topics []string, rng *rand.Rand) *TopicCycle {
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	return &TopicCycle{topics: topics, rng: rng}
}

// Next returns the query to search and the base topic it was derived from.
func (t *TopicCycle) Next() (query, topic string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	topic = t.topics[t.next%len(t.topics)]
	t.next++
	query = fmt.Sprintf(phrasings[t.rng.Intn(len(phrasings))], topic)
	return query, topic
}

// Len returns the number of topics in the cycle.
func (t *TopicCycle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.topics)
}
