package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Page is a fetched, text-extracted web page.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Fetcher downloads pages and extracts their readable text content.
type Fetcher struct {
	client       *http.Client
	skipKeywords []string
}

// NewFetcher creates a fetcher. skipKeywords lists URL substrings that mark
// pages not worth (or not safe) fetching, such as login and account pages.
func NewFetcher(timeout time.Duration, skipKeywords []string) *Fetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:       &http.Client{Timeout: timeout},
		skipKeywords: skipKeywords,
	}
}

// FilterVisits drops non-http(s) URLs and any URL containing a skip
// keyword, preserving order.
func (f *Fetcher) FilterVisits(visits []Visit) []Visit {
	out := make([]Visit, 0, len(visits))
	for _, v := range visits {
		if !strings.HasPrefix(v.URL, "http://") && !strings.HasPrefix(v.URL, "https://") {
			continue
		}
		if f.skipped(v.URL) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (f *Fetcher) skipped(rawURL string) bool {
	for _, kw := range f.skipKeywords {
		if strings.Contains(rawURL, kw) {
			return true
		}
	}
	return false
}

// Fetch downloads one page and strips it down to readable text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Page{}, fmt.Errorf("fetch %s: %s", rawURL, resp.Status)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Page{}, err
	}
	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return Page{}, fmt.Errorf("extract text from %s: %w", rawURL, err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return Page{}, fmt.Errorf("no readable text in %s", rawURL)
	}
	return Page{URL: rawURL, Title: article.Title, Text: text}, nil
}
