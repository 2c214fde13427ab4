package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than the window are dropped on the next sweep.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	window  time.Duration
	message string
	now     func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requests per window for each client, all of which
// may arrive at once
func NewRateLimiter(requests int, window time.Duration, message string) *RateLimiter {
	if requests < 1 {
		requests = 1
	}
	return &RateLimiter{
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		window:  window,
		message: message,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Allow consumes one token for key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) > r.window {
		for k, cl := range r.clients {
			if now.Sub(cl.lastSeen) > r.window {
				delete(r.clients, k)
			}
		}
		r.lastSweep = now
	}

	cl, ok := r.clients[key]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Handler rejects clients over their budget with 429
func (r *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			abort(c, http.StatusTooManyRequests, r.message)
			return
		}
		c.Next()
	}
}
