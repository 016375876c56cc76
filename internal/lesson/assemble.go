package lesson

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/abiral/chessfeed/internal/content"
)

const (
	// NominalSlideSeconds is the per-slide time used for the estimated
	// duration. It matches the default pacing but is an estimate only.
	NominalSlideSeconds = 5

	// MaxContentSlides caps content slides per record.
	MaxContentSlides = 8

	// MaxShowcaseSlides caps leftover image-showcase slides per record.
	MaxShowcaseSlides = 2
)

// Assemble turns raw records into an ordered lesson for the given topic:
// a welcome slide, then per record a title slide, one content slide per
// excerpt and up to two showcase slides for leftover images, a transition
// slide between consecutive records, and a closing summary.
//
// Assemble is pure apart from rng, which picks a fallback image when a
// record has fewer images than excerpts. Zero records yields a lesson with
// only the welcome and summary slides; callers decide whether that is
// worth enqueuing.
func Assemble(records []*content.Record, topic string, rng *rand.Rand) *Lesson {
	now := time.Now()
	l := &Lesson{
		ID:        newLessonID(topic, now),
		Title:     lessonTitle(topic),
		Topic:     topic,
		CreatedAt: now,
		Status:    StatusPending,
	}

	l.Slides = append(l.Slides, Slide{
		ID:        l.ID + "_welcome",
		Title:     l.Title,
		Body:      fmt.Sprintf("A short lesson on %s.", topic),
		Topic:     topic,
		Kind:      KindTitle,
		CreatedAt: now,
	})

	for ri, r := range records {
		if ri > 0 {
			l.Slides = append(l.Slides, Slide{
				ID:        fmt.Sprintf("%s_transition_%d", l.ID, ri),
				Title:     titleCase(topic),
				Body:      "Next up...",
				Topic:     topic,
				Kind:      KindTransition,
				CreatedAt: now,
			})
		}
		l.appendRecordSlides(r, now, rng)
		l.Sources = append(l.Sources, r.URL)
	}

	l.Slides = append(l.Slides, Slide{
		ID:        l.ID + "_summary",
		Title:     "That's a wrap",
		Body:      fmt.Sprintf("You just covered %s. More coming up.", topic),
		Topic:     topic,
		Kind:      KindSummary,
		CreatedAt: now,
	})

	l.EstimatedDuration = time.Duration(len(l.Slides)) * NominalSlideSeconds * time.Second
	return l
}

// appendRecordSlides emits the title, content, and showcase slides for one
// record.
func (l *Lesson) appendRecordSlides(r *content.Record, now time.Time, rng *rand.Rand) {
	title := Slide{
		ID:        r.ID + "_title",
		Title:     r.Title,
		Body:      fmt.Sprintf("Topic: %s", titleCase(r.Topic)),
		SourceURL: r.URL,
		Topic:     r.Topic,
		Kind:      KindTitle,
		CreatedAt: now,
	}
	if len(r.Images) > 0 {
		title.Images = []string{r.Images[0]}
	}
	l.Slides = append(l.Slides, title)

	excerpts := r.Excerpts
	if len(excerpts) > MaxContentSlides {
		excerpts = excerpts[:MaxContentSlides]
	}
	for i, excerpt := range excerpts {
		var imgs []string
		switch {
		case i < len(r.Images):
			imgs = []string{r.Images[i]}
		case len(r.Images) > 0:
			imgs = []string{r.Images[rng.Intn(len(r.Images))]}
		}
		l.Slides = append(l.Slides, Slide{
			ID:        fmt.Sprintf("%s_content_%d", r.ID, i),
			Title:     r.Title,
			Body:      excerpt,
			Images:    imgs,
			SourceURL: r.URL,
			Topic:     r.Topic,
			Kind:      KindContent,
			CreatedAt: now,
		})
	}

	// Images not consumed by a content slide get their own showcase.
	leftover := r.Images
	if len(excerpts) < len(leftover) {
		leftover = leftover[len(excerpts):]
	} else {
		leftover = nil
	}
	if len(leftover) > MaxShowcaseSlides {
		leftover = leftover[:MaxShowcaseSlides]
	}
	for i, img := range leftover {
		l.Slides = append(l.Slides, Slide{
			ID:        fmt.Sprintf("%s_image_%d", r.ID, i),
			Title:     fmt.Sprintf("%s - Visual", titleCase(r.Topic)),
			Images:    []string{img},
			SourceURL: r.URL,
			Topic:     r.Topic,
			Kind:      KindImage,
			CreatedAt: now,
		})
	}
}

func lessonTitle(topic string) string {
	return fmt.Sprintf("Welcome: %s", titleCase(topic))
}

// titleCase uppercases the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
