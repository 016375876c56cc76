package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

const searchEndpoint = "https://html.duckduckgo.com/html/"

// SearchResult is one hit from the web search.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// Search queries the DuckDuckGo HTML endpoint and returns the parsed
// result list. An empty list with a nil error means the search worked but
// found nothing usable.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	req, err := c.newRequest(ctx, c.searchBase+"?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q: status %d", query, resp.StatusCode)
	}
	return parseResults(io.LimitReader(resp.Body, maxBodyBytes))
}

// parseResults extracts search hits from the HTML endpoint's result page.
// Result links carry the result__a class; snippets the result__snippet
// class. Links are redirect-wrapped, so each href goes through
// resolveRedirect.
func parseResults(r io.Reader) ([]SearchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	var results []SearchResult
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			target := resolveRedirect(attr(n, "href"))
			if target != "" {
				results = append(results, SearchResult{
					Title: strings.TrimSpace(textContent(n)),
					URL:   target,
				})
			}
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") && len(results) > 0 {
			if results[len(results)-1].Snippet == "" {
				results[len(results)-1].Snippet = strings.TrimSpace(textContent(n))
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<encoded> redirect links.
// Hrefs that are not redirect-wrapped come back unchanged; ad links and
// anything unparsable come back empty.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if strings.Contains(u.Path, "/y.js") {
			// Ad click-through, not a content link.
			return ""
		}
		return uddg
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return href
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
