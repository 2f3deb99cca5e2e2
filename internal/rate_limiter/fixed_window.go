package ratelimiter

import (
	"sync"
	"time"

	"github.com/SeakMengs/DocSign/internal/config"
	"go.uber.org/zap"
)

type window struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter counts requests per key in fixed time frames.
type FixedWindowRateLimiter struct {
	sync.Mutex
	logger  *zap.SugaredLogger
	windows map[string]*window
	limit   int
	frame   time.Duration
	enabled bool
	now     func() time.Time
}

func NewFixedWindowLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	frame := cfg.TimeFrame
	if frame <= 0 {
		frame = time.Minute
	}

	return &FixedWindowRateLimiter{
		logger:  logger,
		windows: make(map[string]*window),
		limit:   cfg.RequestsPerTimeFrame,
		frame:   frame,
		enabled: cfg.Enabled,
		now:     time.Now,
	}
}

func (rl *FixedWindowRateLimiter) Enabled() bool {
	return rl.enabled
}

// Allow returns whether the request is allowed and, when it is not, the seconds to wait.
func (rl *FixedWindowRateLimiter) Allow(key string) (bool, int64) {
	if !rl.enabled {
		return true, 0
	}

	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.frame {
		rl.windows[key] = &window{start: now, count: 1}
		rl.evictLocked(now)
		return true, 0
	}

	if w.count < rl.limit {
		w.count++
		return true, 0
	}

	retryAfter := w.start.Add(rl.frame).Sub(now)
	rl.logger.Debugf("Rate limit exceeded for %s, retry after %s", key, retryAfter)
	return false, int64(retryAfter.Seconds()) + 1
}

// evictLocked drops expired windows so idle clients do not accumulate.
func (rl *FixedWindowRateLimiter) evictLocked(now time.Time) {
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.frame {
			delete(rl.windows, key)
		}
	}
}
