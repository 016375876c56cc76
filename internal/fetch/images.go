package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	imageEndpoint = "https://duckduckgo.com"

	// downloadInterval spaces out image downloads to stay polite.
	downloadInterval = 200 * time.Millisecond
)

var vqdPattern = regexp.MustCompile(`vqd=['"]?([\d-]+)`)

// ImageRef is one hit from the image search.
type ImageRef struct {
	URL       string `json:"image"`
	Thumbnail string `json:"thumbnail"`
	Title     string `json:"title"`
	Source    string `json:"url"`
}

// SearchImages queries the image search for up to limit diagram images.
// The endpoint requires a vqd token scraped from the regular search page,
// so this makes two requests.
func (c *Client) SearchImages(ctx context.Context, query string, limit int) ([]ImageRef, error) {
	query = query + " chess diagram"
	vqd, err := c.imageToken(ctx, query)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("l", "us-en")
	params.Set("o", "json")
	params.Set("q", query)
	params.Set("vqd", vqd)
	req, err := c.newRequest(ctx, c.imageBase+"/i.js?"+params.Encode())
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search %q: %w", query, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search %q: status %d", query, resp.StatusCode)
	}

	var payload struct {
		Results []ImageRef `json:"results"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("image search %q: %w", query, err)
	}
	if len(payload.Results) > limit {
		payload.Results = payload.Results[:limit]
	}
	return payload.Results, nil
}

// imageToken fetches the vqd token the image endpoint demands.
func (c *Client) imageToken(ctx context.Context, query string) (string, error) {
	req, err := c.newRequest(ctx, c.imageBase+"/?q="+url.QueryEscape(query)+"&ia=images&iax=images")
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("image token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("image token: %w", err)
	}
	m := vqdPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("image token: vqd not found in search page")
	}
	return string(m[1]), nil
}

// DownloadImages mirrors the given image URLs under the images directory,
// partitioned by topic. Failures are logged and skipped; the returned
// paths cover only the successful downloads.
func (c *Client) DownloadImages(ctx context.Context, imageURLs []string, topic string) []string {
	dir := filepath.Join(c.cfg.ImagesDir, topicDirName(topic))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.log.Warn("image dir create failed", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	var paths []string
	for i, imgURL := range imageURLs {
		if i > 0 {
			select {
			case <-ctx.Done():
				return paths
			case <-time.After(downloadInterval):
			}
		}
		path, err := c.downloadOne(ctx, imgURL, dir)
		if err != nil {
			c.log.Debug("image download failed",
				zap.String("url", imgURL), zap.Error(err))
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func (c *Client) downloadOne(ctx context.Context, imgURL, dir string) (string, error) {
	req, err := c.newRequest(ctx, imgURL)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, imageFileName(imgURL, resp.Header.Get("Content-Type")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// imageFileName derives a stable name from the source URL plus an
// extension guessed from the content type.
func imageFileName(imgURL, contentType string) string {
	sum := sha256.Sum256([]byte(imgURL))
	name := hex.EncodeToString(sum[:])[:10]

	ext := ".jpg"
	switch {
	case strings.Contains(contentType, "png"):
		ext = ".png"
	case strings.Contains(contentType, "gif"):
		ext = ".gif"
	case strings.Contains(contentType, "webp"):
		ext = ".webp"
	}
	return name + ext
}

// topicDirName maps a topic to a filesystem-safe directory name.
func topicDirName(topic string) string {
	name := strings.ReplaceAll(topic, " ", "_")
	if len(name) > 30 {
		name = name[:30]
	}
	return name
}
