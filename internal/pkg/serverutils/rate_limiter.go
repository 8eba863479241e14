package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per caller. Idle buckets expire after an hour.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *cache.Cache
}

// NewRateLimiter allows perMinute requests per caller, with bursts of the same size.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &RateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		limiters: cache.New(time.Hour, 10*time.Minute),
	}
}

func (r *RateLimiter) limiterFor(key string) *rate.Limiter {
	if v, ok := r.limiters.Get(key); ok {
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(r.limit, r.burst)
	if err := r.limiters.Add(key, l, cache.DefaultExpiration); err != nil {
		// lost the race, use the winner's bucket
		if v, ok := r.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// Allow reports whether key may make another request now.
func (r *RateLimiter) Allow(key string) bool {
	return r.limiterFor(key).Allow()
}

// Middleware keys on the authenticated user, falling back to the client IP.
func (r *RateLimiter) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		key, _ := ctx.Locals("user_id").(string)
		if key == "" {
			key = ctx.IP()
		}
		if !r.Allow(key) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse(429, "Too many requests, please slow down"))
		}
		return ctx.Next()
	}
}
