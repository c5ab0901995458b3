package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
	Reset(ctx context.Context, key string) error
}

// Limiter is a fixed-window counter keyed by an arbitrary attempt key.
type Limiter struct {
	store  WindowStore
	prefix string
	max    int
	window time.Duration
}

func NewLimiter(store WindowStore, prefix string, max int, window time.Duration) *Limiter {
	if max < 0 {
		max = 0
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Limiter{
		store:  store,
		prefix: strings.TrimSuffix(prefix, ":"),
		max:    max,
		window: window,
	}
}

// Allow records one attempt. A zero max disables limiting.
func (l *Limiter) Allow(ctx context.Context, key string) (int64, bool, error) {
	if strings.TrimSpace(key) == "" {
		return 0, false, fmt.Errorf("rate key is required")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}
	if l.max == 0 {
		return 0, true, nil
	}

	count, ttl, err := l.store.IncrementWindow(ctx, l.key(key), l.window)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.max) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

func (l *Limiter) RetryAfter(ctx context.Context, key string) (int64, error) {
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}
	if l.max == 0 {
		return 0, nil
	}

	count, ttl, err := l.store.WindowState(ctx, l.key(key))
	if err != nil {
		return 0, err
	}
	if count >= int64(l.max) {
		return ceilSeconds(ttl), nil
	}
	return 0, nil
}

func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l.store == nil {
		return fmt.Errorf("rate limiter store is nil")
	}
	return l.store.Reset(ctx, l.key(key))
}

func (l *Limiter) key(key string) string {
	return "rate:" + l.prefix + ":" + key
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
