package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// RateLimiter applies a fixed-window per-client limit. State is in-process;
// a multi-instance deployment needs a shared store instead.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window

	limit  int
	period time.Duration
	now    func() time.Time
}

type window struct {
	start time.Time
	count int
}

// NewRateLimiter builds a limiter allowing limit requests per period per
// client IP.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 60
	}
	if period <= 0 {
		period = time.Minute
	}
	return &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Middleware returns the gin handler enforcing the limit.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			response.Error(c, apperrors.ErrRateLimit)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Allow records a request for the key and reports whether it is within the
// limit.
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		l.windows[key] = &window{start: now, count: 1}
		l.sweep(now)
		return true
	}

	w.count++
	return w.count <= l.limit
}

// sweep drops stale windows so the map does not grow without bound. Called
// with the lock held.
func (l *RateLimiter) sweep(now time.Time) {
	if len(l.windows) < 10_000 {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, key)
		}
	}
}
