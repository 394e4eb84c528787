package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all recognized settings. Values come from the environment
// with defaults matching the reference deployment; a .env file is loaded
// first when present.
type Config struct {
	Port            string
	AllowedOrigins  []string
	FrontendBaseURL string

	CacheTTL time.Duration

	RateLimitEnabled     bool
	RateLimitPollsCreate int // requests per minute per client
	RateLimitVotes       int

	MinPollOptions     int
	MaxPollOptions     int
	MinPollTitleLength int
	MaxPollTitleLength int
	MaxOptionLength    int

	TrendingDecayHours int
	VoteWeight         float64
	LikeWeight         float64

	WebhookEnabled bool
	AdminAPIKey    string

	OpenAIEnabled bool
	OpenAIAPIKey  string
}

// Load reads configuration from .env (if present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	return &Config{
		Port:            envString("PORT", "8090"),
		AllowedOrigins:  envList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		FrontendBaseURL: envString("FRONTEND_BASE_URL", "http://localhost:3000"),

		CacheTTL: time.Duration(envInt("CACHE_TTL", 300)) * time.Second,

		RateLimitEnabled:     envBool("RATE_LIMIT_ENABLED", true),
		RateLimitPollsCreate: envInt("RATE_LIMIT_POLLS_CREATE", 5),
		RateLimitVotes:       envInt("RATE_LIMIT_VOTES", 30),

		MinPollOptions:     envInt("MIN_POLL_OPTIONS", 2),
		MaxPollOptions:     envInt("MAX_POLL_OPTIONS", 10),
		MinPollTitleLength: envInt("MIN_POLL_TITLE_LENGTH", 5),
		MaxPollTitleLength: envInt("MAX_POLL_TITLE_LENGTH", 200),
		MaxOptionLength:    envInt("MAX_OPTION_LENGTH", 200),

		TrendingDecayHours: envInt("TRENDING_DECAY_HOURS", 24),
		VoteWeight:         envFloat("VOTE_WEIGHT", 1.0),
		LikeWeight:         envFloat("LIKE_WEIGHT", 0.5),

		WebhookEnabled: envBool("WEBHOOK_ENABLED", true),
		AdminAPIKey:    envString("ADMIN_API_KEY", ""),

		OpenAIEnabled: envBool("OPENAI_ENABLED", false),
		OpenAIAPIKey:  envString("OPENAI_API_KEY", ""),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
