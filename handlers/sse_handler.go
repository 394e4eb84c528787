package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// SSEClient is one open event-stream connection for a poll.
type SSEClient struct {
	pollID  string
	writer  http.ResponseWriter
	flusher http.Flusher

	// wmu serializes writes: broadcasts and keepalives come from
	// different goroutines.
	wmu sync.Mutex
}

func (cl *SSEClient) sendEvent(payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	cl.wmu.Lock()
	defer cl.wmu.Unlock()
	if _, err := fmt.Fprintf(cl.writer, "data: %s\n\n", data); err != nil {
		return err
	}
	cl.flusher.Flush()
	return nil
}

func (cl *SSEClient) sendComment(text string) {
	cl.wmu.Lock()
	defer cl.wmu.Unlock()
	fmt.Fprintf(cl.writer, ": %s\n\n", text)
	cl.flusher.Flush()
}

// HandleSSE streams live result updates for a poll over Server-Sent
// Events, as a fallback for clients that cannot hold a WebSocket.
func (h *Handler) HandleSSE(c *gin.Context) {
	pollID := c.Param("id")
	poll, err := h.store.Snapshot(pollID)
	if err != nil {
		storeError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming unsupported"})
		return
	}

	client := &SSEClient{pollID: pollID, writer: c.Writer, flusher: flusher}

	h.sseMu.Lock()
	h.sseClients[pollID] = append(h.sseClients[pollID], client)
	h.sseMu.Unlock()
	defer h.removeSSEClient(client)

	log.Printf("SSE client registered: poll=%s ip=%s", pollID, c.ClientIP())

	// Initial snapshot so the client renders immediately
	if err := client.sendEvent(calculatePercentages(poll.Options)); err != nil {
		return
	}

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-keepalive.C:
			client.sendComment("keepalive")
		}
	}
}

func (h *Handler) removeSSEClient(client *SSEClient) {
	h.sseMu.Lock()
	defer h.sseMu.Unlock()

	clients := h.sseClients[client.pollID]
	for i, cl := range clients {
		if cl == client {
			h.sseClients[client.pollID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.sseClients[client.pollID]) == 0 {
		delete(h.sseClients, client.pollID)
	}
	log.Printf("SSE client unregistered: poll=%s", client.pollID)
}

// broadcastSSE pushes updated results to every event-stream subscriber
// of the poll. The registry lock is held across the writes so a handler
// in the middle of tearing down cannot release its response writer while
// a broadcast is still using it. Write failures just mean the client
// went away; its handler goroutine notices via the request context.
func (h *Handler) broadcastSSE(pollID string, results []OptionResult) {
	h.sseMu.Lock()
	defer h.sseMu.Unlock()

	for _, client := range h.sseClients[pollID] {
		if err := client.sendEvent(results); err != nil {
			log.Printf("SSE broadcast to poll %s client failed: %v", pollID, err)
		}
	}
}
