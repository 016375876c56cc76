package fetch

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abiral/chessfeed/internal/content"
)

// Browser-like headers keep the content sites from serving block pages.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	defaultTimeout   = 15 * time.Second
	maxBodyBytes     = 10 << 20
	maxContentChars  = 50000
	minContentChars  = 100
	maxPagesPerTopic = 5
)

// Config holds fetcher tuning. Zero-value fields fall back to the
// defaults above.
type Config struct {
	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// ImagesDir is where downloaded images land, partitioned by topic.
	// Empty disables image downloads.
	ImagesDir string

	// MaxExcerpts caps excerpts per record.
	MaxExcerpts int

	// MaxImages caps harvested image URLs per record.
	MaxImages int

	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// Client fetches chess content from the web: it searches, extracts
// readable articles, and mirrors images locally. A URL is fetched at most
// once per client; the dedup set lives for the process.
type Client struct {
	http *http.Client
	cfg  Config
	log  *zap.Logger

	// Endpoint bases, swappable in tests.
	searchBase string
	imageBase  string

	mu       sync.Mutex
	searched map[string]struct{}
}

// NewClient creates a fetch client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxExcerpts <= 0 {
		cfg.MaxExcerpts = 10
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		log:        cfg.Logger,
		searchBase: searchEndpoint,
		imageBase:  imageEndpoint,
		searched:   make(map[string]struct{}),
	}
}

// FetchTopic searches for query and fetches up to limit records for the
// topic. Individual page failures are logged and skipped; the error
// return covers only the search itself.
func (c *Client) FetchTopic(ctx context.Context, query, topic string, limit int) ([]*content.Record, error) {
	results, err := c.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	var records []*content.Record
	attempts := 0
	for _, res := range results {
		if len(records) >= limit || attempts >= maxPagesPerTopic {
			break
		}
		if c.seen(res.URL) {
			continue
		}
		attempts++
		rec, err := c.FetchRecord(ctx, res.URL, topic)
		if err != nil {
			c.log.Debug("page fetch skipped",
				zap.String("url", res.URL), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	if c.cfg.ImagesDir != "" {
		c.supplementImages(ctx, records, topic)
	}

	c.log.Info("topic fetched",
		zap.String("topic", topic),
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Int("records", len(records)))
	return records, nil
}

// supplementImages runs a standalone image search for records whose pages
// carried no usable images, so their slides still get diagrams. Search or
// download failures leave the records as they were.
func (c *Client) supplementImages(ctx context.Context, records []*content.Record, topic string) {
	var bare []*content.Record
	for _, r := range records {
		if len(r.Images) == 0 {
			bare = append(bare, r)
		}
	}
	if len(bare) == 0 {
		return
	}

	refs, err := c.SearchImages(ctx, topic, c.cfg.MaxImages)
	if err != nil {
		c.log.Debug("image search skipped",
			zap.String("topic", topic), zap.Error(err))
		return
	}
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}
	paths := c.DownloadImages(ctx, urls, topic)
	if len(paths) == 0 {
		return
	}

	// Spread the haul round-robin so no record hoards every diagram.
	for i, r := range bare {
		for j := i; j < len(paths); j += len(bare) {
			r.Images = append(r.Images, paths[j])
		}
	}
}

// SearchedCount returns the number of distinct URLs fetched so far.
func (c *Client) SearchedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.searched)
}

// seen records the URL in the dedup set and reports whether it was
// already there.
func (c *Client) seen(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.searched[url]; ok {
		return true
	}
	c.searched[url] = struct{}{}
	return false
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return req, nil
}
