package engine

import (
	"fmt"
	"slices"
	"strings"
)

// Persona names the assistant and the portfolio owner.
type Persona struct {
	AssistantName string
	OwnerName     string
}

// PromptBuilder composes completion requests. It is pure: no I/O, no randomness.
type PromptBuilder struct {
	persona Persona
}

func NewPromptBuilder(p Persona) *PromptBuilder {
	return &PromptBuilder{persona: p}
}

// Build embeds context into the system prompt, keeps the last PromptTurns
// history turns and uses query as the user turn.
func (b *PromptBuilder) Build(query, context string, history []Turn) CompletionRequest {
	if len(history) > PromptTurns {
		history = history[len(history)-PromptTurns:]
	}
	return CompletionRequest{
		SystemPrompt: fmt.Sprintf(systemPromptTemplate, b.persona.AssistantName, b.persona.OwnerName, context),
		History:      slices.Clone(history),
		UserTurn:     query,
	}
}

// RenderConversation flattens history and the user turn into one prompt.
// Without history it is just the user turn.
func RenderConversation(req CompletionRequest) string {
	if len(req.History) == 0 {
		return req.UserTurn
	}
	var sb strings.Builder
	for _, t := range req.History {
		switch t.Role {
		case RoleUser:
			sb.WriteString("Visitor: ")
		case RoleAssistant:
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	return fmt.Sprintf(conversationTemplate, sb.String(), req.UserTurn)
}
