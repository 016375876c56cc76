package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/abiral/chessfeed/internal/content"
)

// ErrUnsupported marks content types the fetcher does not extract from,
// like PDFs.
var ErrUnsupported = errors.New("unsupported content type")

// Vocabulary used to keep excerpts on topic. A paragraph with none of
// these words only survives while the record is still short.
var chessKeywords = []string{
	"chess", "piece", "pawn", "knight", "bishop", "rook", "queen", "king",
	"move", "checkmate", "opening", "endgame", "tactic", "strategy",
	"position", "attack", "defense", "castle", "gambit", "sacrifice",
}

// FetchRecord downloads a page and turns it into a content record:
// readable article extraction, excerpt splitting, and image harvesting
// with optional local download.
func (c *Client) FetchRecord(ctx context.Context, pageURL, topic string) (*content.Record, error) {
	req, err := c.newRequest(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "application/pdf") {
		return nil, fmt.Errorf("fetch %s: %w (%s)", pageURL, ErrUnsupported, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", pageURL, err)
	}

	text := article.TextContent
	if len(text) > maxContentChars {
		text = text[:maxContentChars]
	}
	if len(strings.TrimSpace(text)) < minContentChars {
		return nil, fmt.Errorf("extract %s: content too short", pageURL)
	}

	excerpts := splitExcerpts(text, c.cfg.MaxExcerpts)
	if len(excerpts) == 0 {
		return nil, fmt.Errorf("extract %s: no usable excerpts", pageURL)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = topic
	}
	if len(title) > 200 {
		title = title[:200]
	}

	imageURLs := harvestImages(article.Content, parsed, c.cfg.MaxImages)
	var localImages []string
	if c.cfg.ImagesDir != "" && len(imageURLs) > 0 {
		localImages = c.DownloadImages(ctx, imageURLs, topic)
	}

	return &content.Record{
		ID:        content.RecordID(pageURL),
		Title:     title,
		Topic:     topic,
		URL:       pageURL,
		Excerpts:  excerpts,
		Images:    localImages,
		FetchedAt: time.Now(),
	}, nil
}

// splitExcerpts breaks article text into slide-sized fragments. Paragraphs
// between 50 and 1000 characters are candidates; off-topic ones are only
// admitted while the excerpt list is still short. When paragraph structure
// yields nothing, sentences are grouped in threes as a fallback.
func splitExcerpts(text string, max int) []string {
	var excerpts []string
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		if len(para) <= 50 || len(para) >= 1000 {
			continue
		}
		if onTopic(para) || len(excerpts) < 3 {
			excerpts = append(excerpts, para)
		}
		if len(excerpts) >= max {
			return excerpts
		}
	}
	if len(excerpts) > 0 {
		return excerpts
	}

	sentences := strings.Split(text, ".")
	for i := 0; i < len(sentences) && i < 9; i += 3 {
		end := i + 3
		if end > len(sentences) {
			end = len(sentences)
		}
		chunk := strings.TrimSpace(strings.Join(sentences[i:end], ". ")) + "."
		if len(chunk) > 50 {
			excerpts = append(excerpts, chunk)
		}
	}
	return excerpts
}

func onTopic(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range chessKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// harvestImages collects absolute image URLs from the article HTML,
// skipping inline data URIs and anything without a known raster
// extension.
func harvestImages(articleHTML string, base *url.URL, max int) []string {
	doc, err := html.Parse(strings.NewReader(articleHTML))
	if err != nil {
		return nil
	}

	var urls []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(urls) >= max {
			return
		}
		if n.Type == html.ElementNode && n.Data == "img" {
			if src := attr(n, "src"); src != "" && !strings.HasPrefix(src, "data:") {
				if ref, err := url.Parse(src); err == nil {
					abs := base.ResolveReference(ref).String()
					if hasImageExt(abs) {
						urls = append(urls, abs)
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return urls
}

func hasImageExt(u string) bool {
	lower := strings.ToLower(u)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
