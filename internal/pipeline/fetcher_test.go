package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/examwatch/examwatch/internal/cache"
	"github.com/examwatch/examwatch/internal/config"
)

func testFetcher(t *testing.T, store cache.Cache) *Fetcher {
	t.Helper()
	cfg := config.Default()
	cfg.Crawl.RespectRobots = false
	return NewFetcher(cfg.HTTP, cfg.Crawl, store, time.Minute, nil)
}

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.Contains(got, "ExamWatchBot") {
			t.Errorf("User-Agent = %q, want ExamWatchBot", got)
		}
		_, _ = w.Write([]byte("<html><body>Notification</body></html>"))
	}))
	defer server.Close()

	f := testFetcher(t, nil)
	result, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", result.StatusCode)
	}
	if !strings.Contains(result.HTML, "Notification") {
		t.Errorf("HTML = %q", result.HTML)
	}
	if result.FromCache {
		t.Error("first fetch must not come from cache")
	}
}

func TestFetchUsesCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<html>cached</html>"))
	}))
	defer server.Close()

	f := testFetcher(t, cache.NewMemoryCache(time.Minute, time.Minute))
	if _, err := f.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	result, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !result.FromCache {
		t.Error("second fetch should hit the cache")
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestFetchErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"not found", http.StatusNotFound, false},
		{"forbidden", http.StatusForbidden, false},
		{"throttled", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"bad gateway", http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := testFetcher(t, nil).Fetch(context.Background(), server.URL)
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("err = %v, want *FetchError", err)
			}
			if fetchErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", fetchErr.StatusCode, tt.status)
			}
			if fetchErr.Retryable() != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", fetchErr.Retryable(), tt.retryable)
			}
		})
	}
}

func TestFetchBodySizeCap(t *testing.T) {
	big := strings.Repeat("x", 10_000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(big))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Crawl.RespectRobots = false
	cfg.HTTP.MaxBodyBytes = 1024
	f := NewFetcher(cfg.HTTP, cfg.Crawl, nil, 0, nil)

	result, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.HTML) != 1024 {
		t.Errorf("body length = %d, want 1024", len(result.HTML))
	}
}

func TestFetchRespectsRobots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>ok</html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := config.Default()
	f := NewFetcher(cfg.HTTP, cfg.Crawl, nil, 0, nil)

	if _, err := f.Fetch(context.Background(), server.URL+"/public/page"); err != nil {
		t.Errorf("allowed path: %v", err)
	}
	_, err := f.Fetch(context.Background(), server.URL+"/private/page")
	if !errors.Is(err, ErrRobotsDisallowed) {
		t.Errorf("err = %v, want ErrRobotsDisallowed", err)
	}
}
