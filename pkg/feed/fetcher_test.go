package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	t.Run("returns body and sends user agent", func(t *testing.T) {
		var gotUA, gotAccept string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotAccept = r.Header.Get("Accept")
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = w.Write([]byte("<rss/>"))
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(5*time.Second, "RSSAggregator/1.0")
		body, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "<rss/>", string(body))
		assert.Equal(t, "RSSAggregator/1.0", gotUA)
		assert.Contains(t, gotAccept, "application/rss+xml")
	})

	t.Run("accepts any 2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNonAuthoritativeInfo)
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		body, err := NewHTTPFetcher(5*time.Second, "test").Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "ok", string(body))
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		fetcher := NewHTTPFetcher(20*time.Millisecond, "test")
		body, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Nil(t, body)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, server.URL, fetchErr.URL)
		assert.Zero(t, fetchErr.StatusCode)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		body, err := NewHTTPFetcher(5*time.Second, "test").Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Nil(t, body)
		assert.Contains(t, err.Error(), "unexpected status code: 500")

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		_, err := NewHTTPFetcher(5*time.Second, "test").Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status code: 404")
	})

	t.Run("invalid url", func(t *testing.T) {
		body, err := NewHTTPFetcher(5*time.Second, "test").Fetch(context.Background(), "not-a-valid-url")
		require.Error(t, err)
		assert.Nil(t, body)
	})

	t.Run("canceled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("late"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewHTTPFetcher(5*time.Second, "test").Fetch(ctx, server.URL)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
