package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"quickpoll-backend/models"
)

// SubmitVote handles the submission of a vote on a poll option. The
// duplicate check and counter updates are one atomic unit inside the
// store; broadcast and webhook dispatch happen afterwards so a slow
// consumer never blocks the next voter.
func (h *Handler) SubmitVote(c *gin.Context) {
	pollID := c.Param("id")

	var input models.VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fingerprint := h.fingerprint(c, input.UserID)
	log.Printf("Vote from %s: poll=%s option=%s", c.ClientIP(), pollID, input.OptionID)

	poll, err := h.store.ApplyVote(pollID, input.OptionID, fingerprint, input.UserID)
	if err != nil {
		storeError(c, err)
		return
	}

	h.trendCache.Flush()

	// Async fan-out after the mutation committed
	go func() {
		results := calculatePercentages(poll.Options)
		h.hub.BroadcastToPoll(poll.ID, &models.WebSocketMessage{
			Type:    "vote_update",
			PollID:  poll.ID,
			Payload: results,
		})
		h.broadcastSSE(poll.ID, results)
		h.hooks.NotifyVote(poll.ID, poll.Question, poll.TotalVotes)
	}()

	c.JSON(http.StatusOK, gin.H{"success": true, "total_votes": poll.TotalVotes})
}

// GetUserVotes returns the caller's recorded choice per poll
func (h *Handler) GetUserVotes(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.VotesForUser(c.Param("id")))
}

// GetUserLikes returns the poll ids the user has liked
func (h *Handler) GetUserLikes(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.LikesForUser(c.Param("id")))
}
