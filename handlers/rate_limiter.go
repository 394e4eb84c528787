package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// rateLimiter keeps one token bucket per client address. Buckets refill
// at perMinute/60 tokens per second with a burst of perMinute.
type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	perMinute int
	stop      chan struct{}

	total    int64
	rejected int64
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		clients:   make(map[string]*clientBucket),
		perMinute: perMinute,
		stop:      make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// close stops the cleanup goroutine. The two production limiters live
// for the whole process; this exists so shorter-lived limiters do not
// leak their goroutine.
func (rl *rateLimiter) close() {
	close(rl.stop)
}

// allow consumes one token for the client, creating its bucket on first
// sight.
func (rl *rateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.total++
	b, ok := rl.clients[client]
	if !ok {
		b = &clientBucket{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), rl.perMinute),
		}
		rl.clients[client] = b
	}
	b.lastSeen = time.Now()

	if !b.limiter.Allow() {
		rl.rejected++
		return false
	}
	return true
}

// cleanupLoop drops buckets idle for more than ten minutes, until close.
func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-10 * time.Minute))
		}
	}
}

func (rl *rateLimiter) cleanup(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for client, b := range rl.clients {
		if b.lastSeen.Before(cutoff) {
			delete(rl.clients, client)
		}
	}
}

func (rl *rateLimiter) stats() gin.H {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return gin.H{
		"perMinute":        rl.perMinute,
		"totalRequests":    rl.total,
		"rejectedRequests": rl.rejected,
		"trackedClients":   len(rl.clients),
	}
}

// RateLimit applies the given limiter keyed by client IP. A nil limiter
// (rate limiting disabled) passes everything through.
func (h *Handler) RateLimit(rl *rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}
		if !rl.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CreateRateLimit guards poll creation.
func (h *Handler) CreateRateLimit() gin.HandlerFunc { return h.RateLimit(h.createLimiter) }

// VoteRateLimit guards votes and like toggles.
func (h *Handler) VoteRateLimit() gin.HandlerFunc { return h.RateLimit(h.voteLimiter) }

// GetRateLimiterStats exposes limiter counters on the admin surface.
func (h *Handler) GetRateLimiterStats(c *gin.Context) {
	if h.createLimiter == nil && h.voteLimiter == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	out := gin.H{"enabled": true}
	if h.createLimiter != nil {
		out["create"] = h.createLimiter.stats()
	}
	if h.voteLimiter != nil {
		out["vote"] = h.voteLimiter.stats()
	}
	c.JSON(http.StatusOK, out)
}
