package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces the per-domain politeness contract: at most
// maxConcurrent requests in flight per domain, and a minimum delay
// between consecutive requests to the same domain. Government exam
// portals ban aggressive crawlers, so the defaults are conservative.
type Limiter struct {
	mu            sync.Mutex
	domains       map[string]*domainState
	minDelay      time.Duration
	maxConcurrent int
}

type domainState struct {
	pacer *rate.Limiter
	sem   chan struct{}
}

func NewLimiter(minDelay time.Duration, maxConcurrent int) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Limiter{
		domains:       make(map[string]*domainState),
		minDelay:      minDelay,
		maxConcurrent: maxConcurrent,
	}
}

func (l *Limiter) state(domain string) *domainState {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.domains[domain]; ok {
		return st
	}
	limit := rate.Inf
	if l.minDelay > 0 {
		limit = rate.Every(l.minDelay)
	}
	st := &domainState{
		pacer: rate.NewLimiter(limit, 1),
		sem:   make(chan struct{}, l.maxConcurrent),
	}
	l.domains[domain] = st
	return st
}

// Acquire takes the domain's concurrency slot and blocks until the
// pacing interval allows another request. The returned release function
// must be called once the request (including retries) is finished.
func (l *Limiter) Acquire(ctx context.Context, rawURL string) (func(), error) {
	domain, err := extractDomain(rawURL)
	if err != nil {
		return nil, err
	}
	st := l.state(domain)

	select {
	case st.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := st.pacer.Wait(ctx); err != nil {
		<-st.sem
		return nil, err
	}
	return func() { <-st.sem }, nil
}

// Wait blocks until the domain's pacing interval allows another
// request. Used for retry attempts while the slot is already held.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	domain, err := extractDomain(rawURL)
	if err != nil {
		return err
	}
	return l.state(domain).pacer.Wait(ctx)
}

// EnsureDelay raises the domain's pacing interval when the host asks
// for a longer crawl delay than the configured floor. It never lowers
// the interval below the floor.
func (l *Limiter) EnsureDelay(rawURL string, delay time.Duration) {
	if delay <= l.minDelay {
		return
	}
	domain, err := extractDomain(rawURL)
	if err != nil {
		return
	}
	l.state(domain).pacer.SetLimit(rate.Every(delay))
}

func extractDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL %q: %w", rawURL, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL %q has no host", rawURL)
	}
	return parsed.Host, nil
}
