// Package radio keeps the queue topped up with model-generated song
// suggestions once the listener's own picks run out.
package radio

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Suggester asks an OpenAI-compatible endpoint for song suggestions in
// "Artist - Song Title" form
type Suggester struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewSuggester creates a Suggester against an OpenAI-compatible base URL.
// An empty API key is replaced with a placeholder for gateways that ignore
// authentication.
func NewSuggester(baseURL, apiKey, model string, logger *zap.Logger) *Suggester {
	if apiKey == "" {
		apiKey = "dummy-key"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
	}

	return &Suggester{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}
}

// Suggest generates songs that fit a radio station seeded by seed. Recently
// played titles are passed along so the model keeps the mood and avoids
// repeats. Errors degrade to an empty list; radio is best-effort.
func (s *Suggester) Suggest(ctx context.Context, seed string, recent []string) []string {
	reqCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	recentContext := ""
	if len(recent) > 0 {
		recentContext = fmt.Sprintf(
			"\nRecently played songs:\n%s\n\nGenerate songs similar to these but avoid suggesting any of them.",
			strings.Join(recent, "\n"))
	}

	resp, err := s.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a music radio DJ. Generate song suggestions that flow well together, maintaining a consistent mood and style. Format each suggestion as 'Artist - Song Title', one per line. Only output the song suggestions, nothing else.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(
					"The listener started a radio station based on: %s%s\n\nGenerate 8-10 new song suggestions that would fit this radio station perfectly.",
					seed, recentContext),
			},
		},
		Temperature: 0.7,
	})
	if err != nil {
		s.logger.Warn("radio suggestion request failed", zap.Error(err))
		return nil
	}
	if len(resp.Choices) == 0 {
		return nil
	}

	return parseSongQueries(resp.Choices[0].Message.Content)
}

// parseSongQueries extracts "Artist - Song" lines from model output,
// stripping list markers and tolerating "Song by Artist" phrasing
func parseSongQueries(content string) []string {
	var queries []string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "-")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		line = stripNumberPrefix(line)
		if line == "" {
			continue
		}

		if !strings.Contains(line, " - ") {
			if !strings.Contains(strings.ToLower(line), " by ") {
				continue
			}
			parts := strings.SplitN(line, " by ", 2)
			if len(parts) != 2 {
				continue
			}
			line = strings.TrimSpace(parts[1]) + " - " + strings.TrimSpace(parts[0])
		}

		parts := strings.SplitN(line, " - ", 2)
		if len(parts) == 2 &&
			strings.TrimSpace(parts[0]) != "" && strings.TrimSpace(parts[1]) != "" {
			queries = append(queries, line)
		}
	}
	return queries
}

// stripNumberPrefix removes a leading "1. " style list marker
func stripNumberPrefix(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(line) || line[i] != '.' || line[i+1] != ' ' {
		return line
	}
	return strings.TrimSpace(line[i+2:])
}
