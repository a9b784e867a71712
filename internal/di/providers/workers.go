package providers

import (
	"github.com/samber/do/v2"

	"github.com/readtrackapp/readtrack-server/internal/config"
	"github.com/readtrackapp/readtrack-server/internal/ratelimit"
)

// RateLimiterHandle wraps the keyed limiter so its sweeper stops on shutdown.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	if h.KeyedRateLimiter != nil {
		h.Stop()
	}
	return nil
}

// ProvideRateLimiter provides the per-client request limiter. A zero rate
// disables limiting and yields a handle with no limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	if cfg.RateLimit.RPS <= 0 {
		log.Info("Rate limiting disabled")
		return &RateLimiterHandle{}, nil
	}

	limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, ratelimit.DefaultIdleTTL)
	log.Info("Rate limiting enabled",
		"rps", cfg.RateLimit.RPS,
		"burst", cfg.RateLimit.Burst,
	)

	return &RateLimiterHandle{KeyedRateLimiter: limiter}, nil
}
