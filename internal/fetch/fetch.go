// Package fetch retrieves a site's external source pages and converts
// them into Markdown citation context for the article prompt.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"go.uber.org/zap"
)

// maxSourceBytes caps how much of a source page is read.
const maxSourceBytes = 1 << 20

// Fetcher downloads source URLs and converts their HTML to Markdown.
type Fetcher struct {
	client    *http.Client
	converter *md.Converter
	logger    *zap.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client:    &http.Client{Timeout: 20 * time.Second},
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// Fetch returns the page at url converted to Markdown.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}

	markdown, err := f.converter.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("converting %s: %w", url, err)
	}
	return markdown, nil
}

// FetchAll fetches every URL, skipping failures. Source material is an
// enrichment: a dead link must not block article generation.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []string {
	sources := make([]string, 0, len(urls))
	for _, url := range urls {
		text, err := f.Fetch(ctx, url)
		if err != nil {
			f.logger.Warn("skipping source", zap.String("url", url), zap.Error(err))
			continue
		}
		sources = append(sources, text)
	}
	return sources
}
