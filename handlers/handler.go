package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"

	"quickpoll-backend/config"
	"quickpoll-backend/notify"
	"quickpoll-backend/store"
	ws "quickpoll-backend/websocket"
)

// Handler carries the shared dependencies for all HTTP handlers.
type Handler struct {
	store *store.Store
	cfg   *config.Config
	hub   *ws.Hub
	hooks *notify.Dispatcher

	// trendCache holds recently computed trending responses; it is
	// flushed on every poll creation, vote, and like so rankings never
	// serve stale data longer than the mutation that changed them.
	trendCache *gocache.Cache

	ai *openai.Client

	// response time tracking for the admin dashboard
	rtMu          sync.Mutex
	responseTimes []float64

	// SSE client registry, grouped by poll id
	sseMu      sync.Mutex
	sseClients map[string][]*SSEClient

	createLimiter *rateLimiter
	voteLimiter   *rateLimiter
}

// New wires a handler set against the given store and collaborators.
func New(cfg *config.Config, st *store.Store, hub *ws.Hub, hooks *notify.Dispatcher) *Handler {
	h := &Handler{
		store:      st,
		cfg:        cfg,
		hub:        hub,
		hooks:      hooks,
		trendCache: gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		sseClients: make(map[string][]*SSEClient),
	}
	if cfg.OpenAIEnabled && cfg.OpenAIAPIKey != "" {
		h.ai = openai.NewClient(cfg.OpenAIAPIKey)
	}
	if cfg.RateLimitEnabled {
		h.createLimiter = newRateLimiter(cfg.RateLimitPollsCreate)
		h.voteLimiter = newRateLimiter(cfg.RateLimitVotes)
	}
	return h
}

// storeError maps store sentinel errors to distinct HTTP statuses.
// Anything outside the taxonomy is a programming defect and surfaces
// as a 500.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrPollNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
	case errors.Is(err, store.ErrPollExpired):
		c.JSON(http.StatusForbidden, gin.H{"error": "Poll has expired"})
	case errors.Is(err, store.ErrInvalidOption):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid option"})
	case errors.Is(err, store.ErrAlreadyVoted):
		c.JSON(http.StatusConflict, gin.H{"error": "Already voted"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// fingerprint derives the caller's voter identity from the request.
func (h *Handler) fingerprint(c *gin.Context, userID string) string {
	return store.Fingerprint(c.ClientIP(), c.Request.UserAgent(), userID)
}
