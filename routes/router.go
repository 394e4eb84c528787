package routes

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"quickpoll-backend/config"
	"quickpoll-backend/handlers"
	ws "quickpoll-backend/websocket"
)

// Server wraps the underlying HTTP server.
type Server struct {
	*http.Server
}

// SetupRouter configures the Gin engine with all application routes.
func SetupRouter(h *handlers.Handler, wsHandler *ws.Handler, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(h.TrackResponseTime())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "QuickPoll API is running"})
	})

	// Embeds are served outside /api so iframe URLs stay short
	router.GET("/embed/:id", h.EmbedPoll)
	router.GET("/embed/script.js", h.EmbedScript)

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

			// Real-time result streams: WebSocket and SSE fallback
			polls.GET("/:id/ws", wsHandler.HandleConnection)
			polls.GET("/:id/live", h.HandleSSE)
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

		ai := api.Group("/ai")
		{
			ai.POST("/generate-poll", h.CreateRateLimit(), h.GeneratePoll)
		}
	}

	return router
}

// StartServer starts the HTTP server on the configured port.
func StartServer(router *gin.Engine, cfg *config.Config) *Server {
	addr := ":" + cfg.Port

	srv := &Server{
		&http.Server{
			Addr:    addr,
			Handler: router,
		},
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	return srv
}
