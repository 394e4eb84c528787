package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quickpoll-backend/models"
)

// ToggleLike flips a user's like on a poll and reports the new state.
func (h *Handler) ToggleLike(c *gin.Context) {
	var input models.LikeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing pollId or userId"})
		return
	}

	liked, totalLikes, err := h.store.ToggleLike(input.PollID, input.UserID)
	if err != nil {
		storeError(c, err)
		return
	}

	h.trendCache.Flush()

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"liked":       liked,
		"total_likes": totalLikes,
	})
}
