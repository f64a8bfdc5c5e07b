package echoapi

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 10 * time.Minute

type (
	visitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	// userRateLimiter throttles requests per authenticated user.
	userRateLimiter struct {
		mu        sync.Mutex
		visitors  map[string]*visitor
		limit     rate.Limit
		burst     int
		lastPrune time.Time
		nowFunc   func() time.Time // mockable
	}
)

// newUserRateLimiter allows perMinute requests per user and minute, with bursts of burst requests.
// A non-positive perMinute disables limiting.
func newUserRateLimiter(perMinute, burst int) *userRateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst <= 0 {
		burst = 1
	}
	return &userRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		nowFunc:  time.Now,
	}
}

func (rl *userRateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFunc()
	if now.Sub(rl.lastPrune) > limiterIdleTimeout {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTimeout {
				delete(rl.visitors, k)
			}
		}
		rl.lastPrune = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// middleware rejects requests over the limit with 429 and a Retry-After header. It must run after the JWT middleware.
func (rl *userRateLimiter) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		userID, err := getContextUserID(ctx)
		if err != nil {
			return err
		}

		res := rl.limiter(userID).ReserveN(rl.nowFunc(), 1)
		if delay := res.DelayFrom(rl.nowFunc()); delay > 0 {
			res.Cancel()
			ctx.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			ctx.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
			ctx.Response().Header().Set("X-RateLimit-Remaining", "0")
			rateLimitedRequests.Inc()
			return errTooManyRequests
		}
		return next(ctx)
	}
}
