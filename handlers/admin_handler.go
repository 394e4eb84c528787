package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// maxTrackedResponseTimes bounds the rolling window behind the
// avg_response_time_ms stat.
const maxTrackedResponseTimes = 100

// TrackResponseTime records request durations for the admin dashboard.
func (h *Handler) TrackResponseTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0

		h.rtMu.Lock()
		h.responseTimes = append(h.responseTimes, elapsed)
		if len(h.responseTimes) > maxTrackedResponseTimes {
			h.responseTimes = h.responseTimes[1:]
		}
		h.rtMu.Unlock()
	}
}

func (h *Handler) avgResponseTimeMs() float64 {
	h.rtMu.Lock()
	defer h.rtMu.Unlock()

	if len(h.responseTimes) == 0 {
		return 0
	}
	var sum float64
	for _, t := range h.responseTimes {
		sum += t
	}
	return sum / float64(len(h.responseTimes))
}

// RequireAdminKey rejects requests whose X-Admin-Key header does not
// match the configured admin secret. An unset secret locks the admin
// surface entirely.
func (h *Handler) RequireAdminKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cfg.AdminAPIKey == "" || c.GetHeader("X-Admin-Key") != h.cfg.AdminAPIKey {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid admin key"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetAdminStats returns the admin dashboard snapshot.
func (h *Handler) GetAdminStats(c *gin.Context) {
	stats := h.store.Stats(time.Now(), h.cfg.VoteWeight, h.cfg.LikeWeight)
	stats.ActiveUsersNow = h.hub.ActiveClients()
	stats.AvgResponseTimeMs = h.avgResponseTimeMs()
	c.JSON(http.StatusOK, stats)
}
