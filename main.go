package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickpoll-backend/config"
	"quickpoll-backend/handlers"
	"quickpoll-backend/notify"
	"quickpoll-backend/routes"
	"quickpoll-backend/store"
	ws "quickpoll-backend/websocket"
)

func main() {
	cfg := config.Load()
	log.Println("Configuration loaded")

	st := store.New(store.Limits{
		MinOptions:     cfg.MinPollOptions,
		MaxOptions:     cfg.MaxPollOptions,
		MinQuestionLen: cfg.MinPollTitleLength,
		MaxQuestionLen: cfg.MaxPollTitleLength,
		MaxOptionLen:   cfg.MaxOptionLength,
	})

	hub := ws.NewHub()
	go hub.Run()
	log.Println("WebSocket hub started")

	hooks := notify.NewDispatcher(cfg.WebhookEnabled)

	h := handlers.New(cfg, st, hub, hooks)
	wsHandler := ws.NewHandler(hub, st)

	router := routes.SetupRouter(h, wsHandler, cfg)
	srv := routes.StartServer(router, cfg)
	log.Println("Server started")

	// Wait for an interrupt signal, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shut down: %v", err)
	}

	log.Println("Server exited")
}
