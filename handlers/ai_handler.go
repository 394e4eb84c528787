package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"

	"quickpoll-backend/models"
)

// aiPollContent is the shape the model is asked to produce.
type aiPollContent struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// GeneratePoll asks the OpenAI chat API for a poll question and options
// on a topic. Disabled deployments answer 503.
func (h *Handler) GeneratePoll(c *gin.Context) {
	if h.ai == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI features not enabled"})
		return
	}

	var input models.AIGenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.NumOptions <= 0 {
		input.NumOptions = 4
	}

	prompt := fmt.Sprintf(`Generate a poll question and %d answer options about: %s

Format your response as JSON:
{
    "question": "Your poll question here?",
    "options": ["Option 1", "Option 2", "Option 3", "Option 4"]
}`, input.NumOptions, input.Topic)

	resp, err := h.ai.CreateChatCompletion(c.Request.Context(), openai.ChatCompletionRequest{
		Model:       openai.GPT3Dot5Turbo,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI generation failed: " + err.Error()})
		return
	}
	if len(resp.Choices) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI generation returned no content"})
		return
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var generated aiPollContent
	if err := json.Unmarshal([]byte(content), &generated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI generation returned malformed content"})
		return
	}

	c.JSON(http.StatusOK, generated)
}
