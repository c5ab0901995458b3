package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/redis"
)

func TestLimiterBlocksAfterMaxAttempts(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), "signin", 3, 15*time.Minute)

	ctx := context.Background()
	key := "citizen@example.com:10.0.0.1"

	for i := 0; i < 3; i++ {
		retryAfter, allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			t.Fatalf("allow #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, key)
	if err != nil {
		t.Fatalf("allow #4: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on fourth attempt")
	}
	if retryAfter <= 0 || retryAfter > int64((15*time.Minute)/time.Second) {
		t.Fatalf("unexpected retry_after: %d", retryAfter)
	}

	currentRetry, err := limiter.RetryAfter(ctx, key)
	if err != nil {
		t.Fatalf("retry_after state: %v", err)
	}
	if currentRetry <= 0 {
		t.Fatalf("expected positive retry_after state, got %d", currentRetry)
	}

	mr.FastForward(16 * time.Minute)

	retryAfter, allowed, err = limiter.Allow(ctx, key)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterResetClearsWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), "signin", 1, time.Minute)
	ctx := context.Background()

	if _, allowed, err := limiter.Allow(ctx, "k"); err != nil || !allowed {
		t.Fatalf("first attempt: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, _ := limiter.Allow(ctx, "k"); allowed {
		t.Fatalf("expected second attempt to be blocked")
	}
	if err := limiter.Reset(ctx, "k"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, allowed, err := limiter.Allow(ctx, "k"); err != nil || !allowed {
		t.Fatalf("attempt after reset: allowed=%v err=%v", allowed, err)
	}
}

func TestLimiterZeroMaxDisablesLimit(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), "signin", 0, time.Minute)
	for i := 0; i < 20; i++ {
		if _, allowed, err := limiter.Allow(context.Background(), "k"); err != nil || !allowed {
			t.Fatalf("attempt #%d: allowed=%v err=%v", i+1, allowed, err)
		}
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
