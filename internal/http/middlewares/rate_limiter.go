package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed window counter per key.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

// Allow records one hit for key and reports whether it fits the window, plus
// the seconds left until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]

	if !ok || now.After(b.windowEnd) {
		rl.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(rl.window),
		}
		rl.sweep(now)
		return true, 0
	}

	if b.count >= rl.limit {
		retryAfter := int(b.windowEnd.Sub(now).Seconds())

		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	b.count++
	return true, 0
}

// sweep drops expired buckets once the map grows; caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if len(rl.clients) < 1024 {
		return
	}

	for k, b := range rl.clients {
		if now.After(b.windowEnd) {
			delete(rl.clients, k)
		}
	}
}

// RateLimiterMiddleware enforces the limit for a derived key

func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// a non-positive limit turns limiting off
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived

			key = clientIP(c)
		}

		// one budget per route, so login attempts do not eat into registration
		ok, retryAfter := rl.Allow(c.FullPath() + "|" + key)

		if !ok {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abort(c, http.StatusTooManyRequests, "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
