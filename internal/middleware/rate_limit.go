package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// bucketIdleTTL is how long an unused bucket survives before the sweeper drops it
	bucketIdleTTL = 10 * time.Minute
	// sweepInterval is how often idle buckets are swept
	sweepInterval = 5 * time.Minute
)

// RateLimiter throttles requests per API token. Each token gets its own
// bucket, created lazily on first use and swept after bucketIdleTTL of
// inactivity.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[uuid.UUID]*tokenBucket
	limit   int // configured requests per minute, reported in headers
	rps     rate.Limit
	burst   int
	done    chan struct{}
}

type tokenBucket struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewRateLimiter creates a RateLimiter allowing requestsPerMinute sustained
// with bursts up to burstSize. Callers own the lifecycle and must Stop it.
func NewRateLimiter(requestsPerMinute, burstSize int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[uuid.UUID]*tokenBucket),
		limit:   requestsPerMinute,
		rps:     rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burstSize,
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow reports whether the token may make another request right now.
func (r *RateLimiter) Allow(tokenID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[tokenID]
	if !ok {
		b = &tokenBucket{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.buckets[tokenID] = b
	}
	b.lastUsed = time.Now()
	return b.limiter.Allow()
}

// headerState approximates the remaining allowance and the moment the
// bucket refills, for the X-RateLimit response headers.
func (r *RateLimiter) headerState(tokenID uuid.UUID) (remaining int, reset time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.buckets[tokenID]
	if !ok {
		return r.burst, time.Now().Add(time.Minute)
	}
	remaining = int(b.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	refill := time.Duration(float64(r.burst-remaining)/float64(r.rps)) * time.Second
	return remaining, time.Now().Add(refill)
}

func (r *RateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-bucketIdleTTL)
			r.mu.Lock()
			for tokenID, b := range r.buckets {
				if b.lastUsed.Before(cutoff) {
					delete(r.buckets, tokenID)
					log.Debug().Str("token_id", tokenID.String()).Msg("Dropped idle rate limit bucket")
				}
			}
			r.mu.Unlock()
		case <-r.done:
			return
		}
	}
}

// Stop terminates the background sweeper.
func (r *RateLimiter) Stop() {
	close(r.done)
}

// RateLimitMiddleware throttles API-token traffic through rl. Session
// authenticated and unauthenticated requests pass through untouched.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAPITokenAuth(c) {
				return next(c)
			}
			tokenID := GetAPITokenID(c)
			if tokenID == uuid.Nil {
				return next(c)
			}

			if !rl.Allow(tokenID) {
				_, reset := rl.headerState(tokenID)
				retryAfter := int(time.Until(reset).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}

				c.Response().Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				c.Response().Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset.Unix()))
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				log.Warn().
					Str("token_id", tokenID.String()).
					Int("retry_after", retryAfter).
					Msg("Rate limit exceeded")

				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"type":   "https://balanze.app/errors/rate-limit",
					"title":  "Rate Limit Exceeded",
					"status": http.StatusTooManyRequests,
					"detail": fmt.Sprintf("Too many requests. Please retry after %d seconds.", retryAfter),
				})
			}

			remaining, reset := rl.headerState(tokenID)
			c.Response().Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
			c.Response().Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			c.Response().Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset.Unix()))

			return next(c)
		}
	}
}
