package ratelimiter

import (
	"github.com/SeakMengs/DocSign/internal/config"
	"go.uber.org/zap"
)

type Limiter interface {
	// Allow reports whether key may make another request, and if not, how long until it may.
	Allow(key string) (bool, int64)
}

func NewRateLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	// For unit test
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return NewFixedWindowLimiter(cfg, logger)
}
