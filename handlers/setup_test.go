package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"quickpoll-backend/config"
	"quickpoll-backend/models"
	"quickpoll-backend/notify"
	"quickpoll-backend/store"
	ws "quickpoll-backend/websocket"
)

const testAdminKey = "test-admin-key"

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		AllowedOrigins:     []string{"*"},
		FrontendBaseURL:    "http://localhost:3000",
		CacheTTL:           300 * time.Second,
		RateLimitEnabled:   false,
		MinPollOptions:     2,
		MaxPollOptions:     10,
		MinPollTitleLength: 5,
		MaxPollTitleLength: 200,
		MaxOptionLength:    200,
		TrendingDecayHours: 24,
		VoteWeight:         1.0,
		LikeWeight:         0.5,
		WebhookEnabled:     false,
		AdminAPIKey:        testAdminKey,
	}
}

// setupTestRouter builds a router against a fresh in-memory store, with
// rate limiting and outbound webhooks disabled. Routes mirror the
// production router.
func setupTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	st := store.New(store.Limits{
		MinOptions:     cfg.MinPollOptions,
		MaxOptions:     cfg.MaxPollOptions,
		MinQuestionLen: cfg.MinPollTitleLength,
		MaxQuestionLen: cfg.MaxPollTitleLength,
		MaxOptionLen:   cfg.MaxOptionLength,
	})

	hub := ws.NewHub()
	go hub.Run()

	h := New(cfg, st, hub, notify.NewDispatcher(false))

	router := gin.New()
	api := router.Group("/api")
	{
		polls := api.Group("/polls")
		{
			polls.POST("", h.CreateRateLimit(), h.CreatePoll)
			polls.GET("", h.GetPolls)
			polls.GET("/trending", h.TrendingPolls)
			polls.GET("/:id", h.GetPoll)
			polls.POST("/:id/vote", h.VoteRateLimit(), h.SubmitVote)
			polls.POST("/:id/webhook", h.AddWebhook)
			polls.GET("/:id/qr", h.GetQRCode)
			polls.GET("/:id/export/csv", h.ExportCSV)
		}
		api.POST("/likes", h.VoteRateLimit(), h.ToggleLike)
		user := api.Group("/user")
		{
			user.GET("/:id/votes", h.GetUserVotes)
			user.GET("/:id/likes", h.GetUserLikes)
		}
		admin := api.Group("/admin")
		admin.Use(h.RequireAdminKey())
		{
			admin.GET("/stats", h.GetAdminStats)
			admin.GET("/ratelimit/stats", h.GetRateLimiterStats)
		}
		api.POST("/ai/generate-poll", h.GeneratePoll)
	}
	router.GET("/embed/:id", h.EmbedPoll)
	router.GET("/embed/script.js", h.EmbedScript)

	return router, st
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createPollViaAPI(t *testing.T, router *gin.Engine, input models.CreatePollInput) models.Poll {
	t.Helper()
	w := performRequest(router, http.MethodPost, "/api/polls", input)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var poll models.Poll
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &poll))
	return poll
}
