package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/examwatch/examwatch/internal/cache"
	"github.com/examwatch/examwatch/internal/config"
	"github.com/examwatch/examwatch/internal/util"
)

// ErrRobotsDisallowed marks URLs the host's robots.txt forbids
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// FetchError is a transport-level failure. Retryable failures (server
// errors, throttling, timeouts) are re-queued by the worker; the rest
// skip the page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth another attempt:
// 5xx, 429, and network timeouts qualify. Client errors do not.
func (e *FetchError) Retryable() bool {
	if e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if e.StatusCode != 0 {
		return false
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// FetchResult is a fetched page body plus transport metadata
type FetchResult struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       string
	FromCache  bool
}

// Fetcher retrieves page bodies over HTTP with a body size cap, an
// optional robots.txt gate and an optional read-through cache.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewFetcher builds a fetcher from the HTTP and crawl configuration.
// store may be nil to disable caching.
func NewFetcher(httpCfg config.HTTPConfig, crawlCfg config.CrawlConfig, store cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	var robots *util.RobotsChecker
	if crawlCfg.RespectRobots {
		robots = util.NewRobotsChecker(httpCfg.UserAgent, httpCfg.Timeout())
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: httpCfg.Timeout(),
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: httpCfg.UserAgent,
		maxBytes:  httpCfg.MaxBodyBytes,
		robots:    robots,
		cache:     store,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// CrawlDelay returns the crawl delay the host's robots.txt requests,
// or zero when robots handling is disabled or the file is unreachable.
func (f *Fetcher) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	if f.robots == nil {
		return 0
	}
	_, delay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return 0
	}
	return delay
}

// Fetch retrieves the page at rawURL. Cached bodies are returned
// without touching the network.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.Key(rawURL)
	if f.cache != nil {
		if body, found := f.cache.Get(key); found {
			f.logger.Debug("cache hit", "url", rawURL)
			return &FetchResult{
				URL:        rawURL,
				FinalURL:   rawURL,
				StatusCode: http.StatusOK,
				HTML:       string(body),
				FromCache:  true,
			}, nil
		}
	}

	if f.robots != nil {
		allowed, _, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, &FetchError{URL: rawURL, Err: err}
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9,hi;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	if f.cache != nil {
		if err := f.cache.Set(key, body, f.cacheTTL); err != nil {
			f.logger.Warn("cache write failed", "url", rawURL, "error", err)
		}
	}

	return &FetchResult{
		URL:        rawURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}
