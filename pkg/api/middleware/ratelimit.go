package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter applies a fixed per-user, per-minute window to write-capable
// endpoints. A 429 here is a frequency cap, distinct from permission denial.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		limit:   requestsPerMinute,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// SetNow overrides the clock. Tests only.
func (r *RateLimiter) SetNow(now func() time.Time) {
	r.now = now
}

// take consumes one slot and reports remaining quota and window reset time.
func (r *RateLimiter) take(userID string) (allowed bool, remaining int, reset time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.windows[userID]
	if !ok || now.Sub(w.start) >= time.Minute {
		w = &window{start: now}
		r.windows[userID] = w
	}
	reset = w.start.Add(time.Minute)

	if w.count >= r.limit {
		return false, 0, reset
	}
	w.count++
	return true, r.limit - w.count, reset
}

// Handler is the gin middleware. Every response carries the remaining-quota
// and reset-time headers; a breached limit short-circuits with 429.
func (r *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			c.Next()
			return
		}

		allowed, remaining, reset := r.take(userID)
		c.Header("X-RateLimit-Limit", strconv.Itoa(r.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(time.Until(reset).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
