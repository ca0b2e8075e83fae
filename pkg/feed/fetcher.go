package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxFeedSize limits the size of a single feed response
const maxFeedSize = 10 * 1024 * 1024

// FetchError is returned when a feed can't be retrieved: transport failure, timeout or non-2xx status
type FetchError struct {
	URL        string
	StatusCode int // zero if no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPFetcher retrieves raw feed bytes with a bounded timeout and a custom user agent.
// It never retries, the caller decides what to do with a failed fetch.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a new feed fetcher
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// Fetch issues a single GET request and returns the response body
func (f *HTTPFetcher) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	addFeedHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: feedURL, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize+1))
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxFeedSize {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("feed exceeds %d bytes", maxFeedSize)}
	}

	return body, nil
}
