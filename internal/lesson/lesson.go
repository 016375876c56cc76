package lesson

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// SlideKind tags what a slide shows, which drives its rendering.
type SlideKind string

const (
	KindTitle      SlideKind = "title"
	KindContent    SlideKind = "content"
	KindImage      SlideKind = "image"
	KindTransition SlideKind = "transition"
	KindSummary    SlideKind = "summary"
)

// Slide is one atomic renderable unit within a lesson. Slides are owned
// exclusively by the lesson that contains them.
type Slide struct {
	ID        string
	Title     string
	Body      string
	Images    []string
	SourceURL string
	Topic     string
	Kind      SlideKind
	CreatedAt time.Time
}

// Status is the lifecycle state of a lesson. Transitions are strictly
// pending → playing → completed, once each, and only the queue advances
// them on behalf of the consumer.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPlaying   Status = "playing"
	StatusCompleted Status = "completed"
)

// Lesson is an ordered, immutable-once-built sequence of slides for one
// topic. Slide order is playback order.
type Lesson struct {
	ID                string
	Title             string
	Topic             string
	Slides            []Slide
	CreatedAt         time.Time
	Sources           []string
	EstimatedDuration time.Duration
	Status            Status
}

// newLessonID derives a lesson id from its topic and creation time.
func newLessonID(topic string, at time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", topic, at.UnixNano())))
	return hex.EncodeToString(sum[:])[:8]
}
