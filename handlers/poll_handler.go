package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"quickpoll-backend/models"
)

// CreatePoll handles the creation of a new poll
func (h *Handler) CreatePoll(c *gin.Context) {
	var input models.CreatePollInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Sanitize free text before it reaches the store
	input.Question = SanitizeText(input.Question)
	for i, opt := range input.Options {
		input.Options[i] = SanitizeText(opt)
	}

	poll, err := h.store.CreatePoll(input)
	if err != nil {
		storeError(c, err)
		return
	}

	// A new poll carries the full recency bonus, so stale rankings must go
	h.trendCache.Flush()

	// QR rendering is decoration: a failure is logged, never surfaced.
	if dataURL, err := qrCodeDataURL(h.cfg.FrontendBaseURL + "/poll/" + poll.ID); err != nil {
		log.Printf("Failed to render QR code for poll %s: %v", poll.ID, err)
	} else {
		h.store.SetQRCodeURL(poll.ID, dataURL)
		poll.QRCodeURL = dataURL
	}

	log.Printf("Poll created: id=%s question=%q options=%d", poll.ID, poll.Question, len(poll.Options))
	c.JSON(http.StatusCreated, poll)
}

// GetPolls retrieves a list of all polls
func (h *Handler) GetPolls(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.ListPolls())
}

// GetPoll handles retrieving a single poll by ID. Polls that hide
// results until vote are masked for callers whose fingerprint has not
// voted; the fingerprint is always derived server-side from the request.
func (h *Handler) GetPoll(c *gin.Context) {
	fingerprint := h.fingerprint(c, c.Query("user_id"))

	poll, err := h.store.GetPoll(c.Param("id"), fingerprint)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

// TrendingPolls returns the top-N polls by trending score. Responses are
// cached per limit for the configured TTL; votes and likes flush the
// cache so rankings track mutations.
func (h *Handler) TrendingPolls(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	cacheKey := fmt.Sprintf("trending:%d", limit)
	if cached, ok := h.trendCache.Get(cacheKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	polls := h.store.Trending(limit, time.Now(), h.cfg.TrendingDecayHours)
	h.trendCache.Set(cacheKey, polls, gocache.DefaultExpiration)
	c.JSON(http.StatusOK, polls)
}

// OptionResult is a poll option annotated with its share of the total
type OptionResult struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// calculatePercentages converts option counters into broadcastable results
func calculatePercentages(options []models.PollOption) []OptionResult {
	var totalVotes int64
	for _, option := range options {
		totalVotes += option.Votes
	}

	results := make([]OptionResult, len(options))
	for i, option := range options {
		results[i] = OptionResult{
			ID:    option.ID,
			Text:  option.Text,
			Votes: option.Votes,
		}
		if totalVotes > 0 {
			results[i].Percentage = float64(option.Votes) / float64(totalVotes) * 100
		}
	}
	return results
}
