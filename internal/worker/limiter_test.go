package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiterPacesSameDomain(t *testing.T) {
	l := NewLimiter(100*time.Millisecond, 1)
	ctx := context.Background()

	start := time.Now()
	release, err := l.Acquire(ctx, "https://upsc.gov.in/a")
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	release()
	release, err = l.Acquire(ctx, "https://upsc.gov.in/b")
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	release()

	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("second request after %v, want >= 100ms pacing", elapsed)
	}
}

func TestLimiterDomainsIndependent(t *testing.T) {
	l := NewLimiter(time.Hour, 1)
	ctx := context.Background()

	r1, err := l.Acquire(ctx, "https://upsc.gov.in/a")
	if err != nil {
		t.Fatalf("upsc Acquire: %v", err)
	}
	defer r1()

	// A different domain must not be blocked by upsc's pacing
	done := make(chan struct{})
	go func() {
		r2, err := l.Acquire(ctx, "https://ssc.nic.in/a")
		if err == nil {
			r2()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("independent domain was blocked")
	}
}

func TestLimiterConcurrencyCap(t *testing.T) {
	l := NewLimiter(0, 1)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "https://ibps.in/a")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		r, err := l.Acquire(ctx, "https://ibps.in/b")
		if err == nil {
			r()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second request ran while the slot was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second request never ran after release")
	}
}

func TestLimiterAcquireHonorsContext(t *testing.T) {
	l := NewLimiter(0, 1)
	release, err := l.Acquire(context.Background(), "https://rbi.org.in/a")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "https://rbi.org.in/b"); err == nil {
		t.Error("Acquire should fail when the context expires while waiting")
	}
}

func TestLimiterRejectsBadURL(t *testing.T) {
	l := NewLimiter(0, 1)
	if _, err := l.Acquire(context.Background(), "not a url"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestEnsureDelayNeverLowersFloor(t *testing.T) {
	l := NewLimiter(100*time.Millisecond, 1)
	l.EnsureDelay("https://upsc.gov.in/a", 10*time.Millisecond)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 2; i++ {
		release, err := l.Acquire(ctx, "https://upsc.gov.in/a")
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		release()
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("pacing dropped below the floor: %v", elapsed)
	}
}
