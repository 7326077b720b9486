package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
)

// Completer is the upstream LLM completion service.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// KitCompleter sends completion requests through the go-kit LLM client
// (any OpenAI-compatible endpoint: Groq, Gemini, OpenAI).
type KitCompleter struct {
	client      *llm.Client
	temperature float64
	maxTokens   int
}

// NewKitCompleter wraps client with per-call sampling settings.
func NewKitCompleter(client *llm.Client, temperature float64, maxTokens int) *KitCompleter {
	return &KitCompleter{client: client, temperature: temperature, maxTokens: maxTokens}
}

// Complete implements Completer.
func (c *KitCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	metrics.LLMCalls.Add(1)
	resp, err := c.client.Complete(ctx, req.SystemPrompt, RenderConversation(req),
		llm.WithChatTemperature(c.temperature),
		llm.WithChatMaxTokens(c.maxTokens),
	)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	text := stripFences(resp)
	if text == "" {
		metrics.LLMErrors.Add(1)
		return "", errors.New("empty completion")
	}
	return text, nil
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
