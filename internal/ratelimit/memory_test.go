package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_EnforcesLimit(t *testing.T) {
	t.Parallel()

	l := NewMemoryLimiter(3, time.Minute)
	defer l.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "ip:/login")
		if err != nil {
			t.Fatalf("Allow error: %v", err)
		}
		if !ok {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}

	ok, err := l.Allow(ctx, "ip:/login")
	if err != nil {
		t.Fatalf("Allow error: %v", err)
	}
	if ok {
		t.Fatal("request over the limit allowed")
	}
}

func TestMemoryLimiter_WindowSlides(t *testing.T) {
	t.Parallel()

	// Built by hand so the clock is injected before anything reads it.
	current := time.Unix(1_700_000_000, 0)
	l := &MemoryLimiter{
		hits:   make(map[string][]time.Time),
		limit:  2,
		window: time.Minute,
		now:    func() time.Time { return current },
		stop:   make(chan struct{}),
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow(ctx, "k"); !ok {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "k"); ok {
		t.Fatal("request over the limit allowed")
	}

	// Once the window has passed the old hits no longer count.
	current = current.Add(61 * time.Second)
	if ok, _ := l.Allow(ctx, "k"); !ok {
		t.Fatal("request denied after the window slid past")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	l := NewMemoryLimiter(1, time.Minute)
	defer l.Close()

	ctx := context.Background()
	if ok, _ := l.Allow(ctx, "a"); !ok {
		t.Fatal("first request for key a denied")
	}
	if ok, _ := l.Allow(ctx, "a"); ok {
		t.Fatal("second request for key a allowed")
	}
	if ok, _ := l.Allow(ctx, "b"); !ok {
		t.Fatal("key b throttled by key a's hits")
	}
}
