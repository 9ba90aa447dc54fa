package selection

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/doyensec/safeurl"
	"golang.org/x/net/html"
)

// creates a fetcher that refuses private, loopback and metadata addresses
func NewFetcher() *Fetcher {
	config := safeurl.GetConfigBuilder().
		SetTimeout(defaultFetchTimeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return &Fetcher{client: safeurl.Client(config).Client}
}

// downloads and parses a page with the default fetcher
func FetchPage(ctx context.Context, pageURL string) (*html.Node, error) {
	return NewFetcher().FetchPage(ctx, pageURL)
}

// downloads pageURL and parses it into a DOM tree
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchPage, err)
	}

	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchPage, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetchPage, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchPage, err)
	}

	return doc, nil
}
