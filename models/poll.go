package models

import (
	"encoding/json"
	"time"
)

// PrivacyLevel controls where a poll is discoverable
type PrivacyLevel string

const (
	PrivacyPublic   PrivacyLevel = "public"
	PrivacyUnlisted PrivacyLevel = "unlisted"
	PrivacyPrivate  PrivacyLevel = "private"
)

// Valid reports whether the privacy level is one of the known values.
func (p PrivacyLevel) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
		return true
	}
	return false
}

// Poll represents a question with a fixed set of options
type Poll struct {
	ID                   string       `json:"id"`
	Question             string       `json:"question"`
	Options              []PollOption `json:"options"`
	CreatedAt            time.Time    `json:"created_at"`
	CreatorID            string       `json:"creator_id,omitempty"`
	TotalVotes           int64        `json:"total_votes"`
	ExpiresAt            *time.Time   `json:"expires_at,omitempty"`
	HideResultsUntilVote bool         `json:"hide_results_until_vote"`
	Privacy              PrivacyLevel `json:"privacy"`
	QRCodeURL            string       `json:"qr_code_url,omitempty"`
	Likes                int64        `json:"likes"`
}

// Expired reports whether the poll's voting window has passed.
func (p *Poll) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// PollOption represents an option within a poll
type PollOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int64  `json:"votes"`
}

// VoteRecord is one accepted vote, immutable once appended to a poll's ledger
type VoteRecord struct {
	OptionID    string    `json:"option_id"`
	Fingerprint string    `json:"-"` // never exposed
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"user_id,omitempty"`
}

// CreatePollInput defines the expected input structure for creating a poll
type CreatePollInput struct {
	Question             string       `json:"question" binding:"required"`
	Options              []string     `json:"options" binding:"required,min=2"`
	CreatorID            string       `json:"creator_id,omitempty"`
	ExpiresInHours       *int         `json:"expires_in_hours,omitempty"`
	HideResultsUntilVote bool         `json:"hide_results_until_vote"`
	Privacy              PrivacyLevel `json:"privacy,omitempty"`
}

// VoteInput defines the expected input structure for submitting a vote
type VoteInput struct {
	OptionID string `json:"option_id" binding:"required"`
	UserID   string `json:"user_id,omitempty"`
}

// LikeInput carries exactly the poll and user for a like toggle
type LikeInput struct {
	PollID string `json:"pollId" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}

// WebhookInput registers an outbound notification target for a poll
type WebhookInput struct {
	WebhookURL string `json:"webhook_url" binding:"required,url"`
	Platform   string `json:"platform" binding:"required,oneof=discord slack"`
}

// AIGenerateInput asks for AI-assisted poll content on a topic
type AIGenerateInput struct {
	Topic      string `json:"topic" binding:"required"`
	NumOptions int    `json:"num_options"`
}

// AdminStats is the admin dashboard snapshot
type AdminStats struct {
	TotalPollsToday   int64            `json:"total_polls_today"`
	ActiveUsersNow    int              `json:"active_users_now"`
	MostPopularPoll   *PopularPollInfo `json:"most_popular_poll"`
	AvgResponseTimeMs float64          `json:"avg_response_time_ms"`
	TotalPolls        int64            `json:"total_polls"`
	TotalVotes        int64            `json:"total_votes"`
}

// PopularPollInfo identifies the poll with the highest engagement
type PopularPollInfo struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	TotalVotes int64  `json:"total_votes"`
}

// WebSocketMessage defines the live-update message format
type WebSocketMessage struct {
	Type    string      `json:"type"`
	PollID  string      `json:"pollId"`
	Payload interface{} `json:"payload"`
}

// ToJSON converts the message to a JSON byte array
func (m *WebSocketMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
