package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a sliding-window counter keyed by caller ip + route.
// State is process-local and intentionally non-durable; restart resets
// all windows. Entries are pruned opportunistically on access and by a
// background sweep so the map cannot grow without bound.
type MemoryLimiter struct {
	mu       sync.Mutex
	hits     map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	stopOnce sync.Once
	stop     chan struct{}
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false, nil
	}

	l.hits[key] = append(recent, now)
	return true, nil
}

func (l *MemoryLimiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := l.now().Add(-l.window)
			l.mu.Lock()
			for key, times := range l.hits {
				keep := times[:0]
				for _, t := range times {
					if t.After(cutoff) {
						keep = append(keep, t)
					}
				}
				if len(keep) == 0 {
					delete(l.hits, key)
				} else {
					l.hits[key] = keep
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *MemoryLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}
