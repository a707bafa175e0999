package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "telegram", Rate: 1, Burst: 3})
	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d should be allowed within burst", i)
		}
	}
	if rl.Allow() {
		t.Error("expected fourth request to be limited")
	}
}

func TestRateLimiter_Refills(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiter(RateLimiterConfig{Rate: 10, Burst: 1})
	rl.now = func() time.Time { return now }
	rl.lastRefill = now

	if !rl.Allow() || rl.Allow() {
		t.Fatal("expected exactly one token")
	}
	now = now.Add(100 * time.Millisecond)
	if !rl.Allow() {
		t.Error("expected token after refill interval")
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 50, Burst: 1})
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected waits to pace requests, took %v", elapsed)
	}
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1})
	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
	if rl.Tokens() < -0.01 {
		t.Errorf("cancelled wait should return its reservation, tokens=%v", rl.Tokens())
	}
}
