package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// limiterRegistry keeps one rate.Limiter per client key. Entries idle
// for longer than staleAfter are dropped during lookups so the map does
// not grow without bound.
type limiterRegistry struct {
	mu         sync.Mutex
	entries    map[string]*limiterEntry
	cfg        RateLimitConfig
	staleAfter time.Duration
	lastSweep  time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterRegistry(cfg RateLimitConfig) *limiterRegistry {
	return &limiterRegistry{
		entries:    make(map[string]*limiterEntry),
		cfg:        cfg,
		staleAfter: 3 * time.Minute,
		lastSweep:  time.Now(),
	}
}

func (r *limiterRegistry) get(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if now.Sub(r.lastSweep) > r.staleAfter {
		for k, e := range r.entries {
			if now.Sub(e.lastSeen) > r.staleAfter {
				delete(r.entries, k)
			}
		}
		r.lastSweep = now
	}

	e, ok := r.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(r.cfg.RequestsPerSecond), r.cfg.BurstSize)}
		r.entries[key] = e
	}
	e.lastSeen = now
	return e.lim
}

// RateLimit limits request throughput per client. The key is the client
// IP, scoped to the authenticated user when one is present so callers
// behind a shared NAT do not exhaust each other's budget.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	reg := newLimiterRegistry(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if userID, ok := c.Get("user_id").(string); ok && userID != "" {
				key = userID + ":" + key
			}

			lim := reg.get(key)
			c.Response().Header().Set("X-RateLimit-Limit", limitHeader)

			rsv := lim.Reserve()
			if !rsv.OK() {
				c.Response().Header().Set("Retry-After", "1")
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			if delay := rsv.Delay(); delay > 0 {
				rsv.Cancel()
				retryAfter := int(math.Ceil(delay.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
