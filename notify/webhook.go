package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Webhook is an outbound notification target registered for a poll.
type Webhook struct {
	URL      string `json:"webhook_url"`
	Platform string `json:"platform"` // "discord" or "slack"
}

// Dispatcher keeps per-poll webhook registrations and fires best-effort
// notifications on accepted votes. Delivery failures are logged and
// swallowed; they never reach the voter.
type Dispatcher struct {
	enabled bool
	client  *http.Client

	mu    sync.RWMutex
	hooks map[string][]Webhook
}

// NewDispatcher creates a dispatcher. When enabled is false every notify
// call is a no-op, matching the webhook feature flag.
func NewDispatcher(enabled bool) *Dispatcher {
	return &Dispatcher{
		enabled: enabled,
		client:  &http.Client{Timeout: 5 * time.Second},
		hooks:   make(map[string][]Webhook),
	}
}

// Register adds a webhook for the poll.
func (d *Dispatcher) Register(pollID, url, platform string) {
	d.mu.Lock()
	d.hooks[pollID] = append(d.hooks[pollID], Webhook{URL: url, Platform: platform})
	d.mu.Unlock()
}

// NotifyVote pushes a vote notification to every webhook registered for
// the poll. Callers invoke this after releasing any poll lock; each
// delivery runs in its own goroutine so a slow endpoint never blocks
// the next vote.
func (d *Dispatcher) NotifyVote(pollID, question string, totalVotes int64) {
	if !d.enabled {
		return
	}

	d.mu.RLock()
	hooks := make([]Webhook, len(d.hooks[pollID]))
	copy(hooks, d.hooks[pollID])
	d.mu.RUnlock()

	for _, hook := range hooks {
		go d.send(hook, question, totalVotes)
	}
}

func (d *Dispatcher) send(hook Webhook, question string, totalVotes int64) {
	payload, ok := buildPayload(hook.Platform, question, totalVotes)
	if !ok {
		log.Printf("Skipping webhook with unknown platform %q", hook.Platform)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode webhook payload: %v", err)
		return
	}

	resp, err := d.client.Post(hook.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("Webhook delivery to %s failed: %v", hook.Platform, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		log.Printf("Webhook delivery to %s returned status %d", hook.Platform, resp.StatusCode)
		return
	}
	log.Printf("Webhook sent successfully to %s", hook.Platform)
}

func buildPayload(platform, question string, totalVotes int64) (map[string]interface{}, bool) {
	switch platform {
	case "discord":
		return map[string]interface{}{
			"content": "New vote on poll: " + question,
			"embeds": []map[string]interface{}{
				{
					"title":       "Poll Update",
					"description": "Total votes: " + formatInt(totalVotes),
					"color":       5814783,
				},
			},
		}, true
	case "slack":
		return map[string]interface{}{
			"text": "New vote on poll: " + question,
			"blocks": []map[string]interface{}{
				{
					"type": "section",
					"text": map[string]interface{}{
						"type": "mrkdwn",
						"text": "*Poll Update*\nTotal votes: " + formatInt(totalVotes),
					},
				},
			},
		}, true
	}
	return nil, false
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
