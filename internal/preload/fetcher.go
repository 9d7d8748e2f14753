package preload

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPFetcher warms images with a GET request and discards the body
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher wraps client, which should be the instrumented outbound client
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

// Fetch downloads url fully so intermediate caches keep a copy
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("image fetch failed: status %d", resp.StatusCode)
	}
	return nil
}
