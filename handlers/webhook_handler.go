package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"quickpoll-backend/models"
)

// AddWebhook registers a Discord or Slack notification target for a poll.
func (h *Handler) AddWebhook(c *gin.Context) {
	pollID := c.Param("id")
	if _, err := h.store.Snapshot(pollID); err != nil {
		storeError(c, err)
		return
	}

	var input models.WebhookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.hooks.Register(pollID, input.WebhookURL, input.Platform)
	log.Printf("Webhook registered: poll=%s platform=%s", pollID, input.Platform)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Webhook added"})
}
