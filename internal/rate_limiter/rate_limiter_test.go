package ratelimiter

import (
	"testing"
	"time"

	"github.com/SeakMengs/DocSign/internal/config"
)

func TestFixedWindowRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimiterConfig{RequestsPerTimeFrame: 2, TimeFrame: time.Minute, Enabled: true}, nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("1.2.3.4"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, retry := rl.Allow("1.2.3.4")
	if ok {
		t.Fatal("third request should be limited")
	}
	if retry <= 0 || retry > 61 {
		t.Errorf("unexpected retry after %d", retry)
	}

	if ok, _ := rl.Allow("5.6.7.8"); !ok {
		t.Error("other clients should not be limited")
	}

	now = now.Add(time.Minute)
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Error("request in a new window should be allowed")
	}
}

func TestDisabledRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimiterConfig{RequestsPerTimeFrame: 0, Enabled: false}, nil)
	for i := 0; i < 10; i++ {
		if ok, _ := rl.Allow("1.2.3.4"); !ok {
			t.Fatal("disabled limiter should allow everything")
		}
	}
}
