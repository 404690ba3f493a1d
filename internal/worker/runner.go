package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/examwatch/examwatch/internal/config"
	"github.com/examwatch/examwatch/internal/model"
)

// Processor is the pipeline surface the runner drives
type Processor interface {
	CrawlPage(ctx context.Context, url string, t model.RecordType, stats *model.RunStats) error
	MonitorTarget(ctx context.Context, target model.MonitoringTarget, stats *model.RunStats) error
	CrawlDelay(ctx context.Context, url string) time.Duration
}

// CrawlTarget is one listing page to crawl
type CrawlTarget struct {
	URL  string
	Type model.RecordType
}

// Runner schedules crawl and monitoring work over the pool, applying
// the per-domain limiter and the retry policy around every page.
type Runner struct {
	proc    Processor
	limiter *Limiter
	workers int
	retries int
	backoff time.Duration
	logger  *slog.Logger
}

func NewRunner(proc Processor, cfg config.CrawlConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		proc:    proc,
		limiter: NewLimiter(cfg.DownloadDelay(), cfg.ConcurrentRequestsPerDomain),
		workers: cfg.Workers,
		retries: cfg.RetryTimes,
		backoff: time.Second,
		logger:  logger,
	}
}

// Crawl processes the targets concurrently and returns merged run
// stats. One failing page never stops the batch.
func (r *Runner) Crawl(ctx context.Context, targets []CrawlTarget) *model.RunStats {
	stats := model.NewRunStats()
	if len(targets) == 0 {
		stats.Finish()
		return stats
	}

	pool := NewPool(r.workers, len(targets))
	pool.Start()
	for _, target := range targets {
		pool.Submit(&crawlJob{runner: r, ctx: ctx, target: target})
	}
	r.collect(pool, stats)
	return stats
}

// Monitor re-checks the monitoring targets concurrently
func (r *Runner) Monitor(ctx context.Context, targets []model.MonitoringTarget) *model.RunStats {
	stats := model.NewRunStats()
	if len(targets) == 0 {
		stats.Finish()
		return stats
	}

	pool := NewPool(r.workers, len(targets))
	pool.Start()
	for _, target := range targets {
		pool.Submit(&monitorJob{runner: r, ctx: ctx, target: target})
	}
	r.collect(pool, stats)
	return stats
}

func (r *Runner) collect(pool *Pool, stats *model.RunStats) {
	for _, result := range pool.Wait() {
		if jr, ok := result.(*jobResult); ok {
			stats.Merge(jr.stats)
		}
	}
	stats.Finish()
}

// withRetry holds the domain slot for the whole attempt sequence and
// paces every attempt. Only transport failures marked retryable get
// another attempt; backoff doubles between attempts.
func (r *Runner) withRetry(ctx context.Context, rawURL string, fn func(context.Context) error) error {
	if delay := r.proc.CrawlDelay(ctx, rawURL); delay > 0 {
		r.limiter.EnsureDelay(rawURL, delay)
	}

	release, err := r.limiter.Acquire(ctx, rawURL)
	if err != nil {
		return err
	}
	defer release()

	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, r.backoff<<(attempt-1)); err != nil {
				return err
			}
			if err := r.limiter.Wait(ctx, rawURL); err != nil {
				return err
			}
			r.logger.Info("retrying page", "url", rawURL, "attempt", attempt+1)
		}
		lastErr = fn(ctx)
		if lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

type jobResult struct {
	url   string
	stats *model.RunStats
	err   error
}

func (r *jobResult) GetError() error { return r.err }

type crawlJob struct {
	runner *Runner
	ctx    context.Context
	target CrawlTarget
}

func (j *crawlJob) Execute(context.Context) Result {
	stats := model.NewRunStats()
	err := j.runner.withRetry(j.ctx, j.target.URL, func(ctx context.Context) error {
		return j.runner.proc.CrawlPage(ctx, j.target.URL, j.target.Type, stats)
	})
	if err != nil {
		j.runner.logger.Error("page failed", "url", j.target.URL, "error", err)
	}
	return &jobResult{url: j.target.URL, stats: stats, err: err}
}

type monitorJob struct {
	runner *Runner
	ctx    context.Context
	target model.MonitoringTarget
}

func (j *monitorJob) Execute(context.Context) Result {
	stats := model.NewRunStats()
	url := ""
	if len(j.target.URLs) > 0 {
		url = j.target.URLs[0]
	}
	if url == "" {
		return &jobResult{stats: stats}
	}
	err := j.runner.withRetry(j.ctx, url, func(ctx context.Context) error {
		return j.runner.proc.MonitorTarget(ctx, j.target, stats)
	})
	if err != nil {
		j.runner.logger.Error("monitoring check failed", "url", url, "error", err)
	}
	return &jobResult{url: url, stats: stats, err: err}
}

// ReadURLsFromFile loads crawl URLs from a file, one per line. Blank
// lines and # comments are skipped; duplicates are dropped.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return urls, nil
}
