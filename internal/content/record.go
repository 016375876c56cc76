package content

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Record is one fetched unit of raw content tied to a source URL and topic.
// Records are immutable once fetched; the cache tracks "used" state
// separately so the record itself is never mutated.
type Record struct {
	// ID is a stable hash of the source URL.
	ID string

	// Title is the page or article title.
	Title string

	// Topic is the base topic the record was fetched for.
	Topic string

	// URL is the source the record was extracted from.
	URL string

	// Excerpts are the text fragments suitable for one slide each.
	Excerpts []string

	// Images are local paths of downloaded images.
	Images []string

	// FetchedAt is when the record was created.
	FetchedAt time.Time
}

// RecordID derives the stable record id from a source URL.
func RecordID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:12]
}
