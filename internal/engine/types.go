package engine

import (
	"fmt"
	"time"
)

// --- Conversation types ---

// Role identifies the author of a stored turn.
type Role uint8

const (
	RoleUser Role = iota + 1
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// ParseRole maps "user"/"assistant" to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	if r != RoleUser && r != RoleAssistant {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Turn is one user or assistant message unit stored in session history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn and AssistantTurn are shorthands for building turns.
func UserTurn(content string) Turn      { return Turn{Role: RoleUser, Content: content} }
func AssistantTurn(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

// CompletionRequest is built fresh per turn and never mutated after construction.
type CompletionRequest struct {
	SystemPrompt string
	History      []Turn // oldest first, at most PromptTurns
	UserTurn     string
}

// --- Generation ---

// GenerationMode tells whether an answer came from the LLM or the fallback composer.
type GenerationMode uint8

const (
	ModeLLM GenerationMode = iota + 1
	ModeFallback
)

func (m GenerationMode) String() string {
	switch m {
	case ModeLLM:
		return "llm"
	case ModeFallback:
		return "fallback"
	}
	return "unknown"
}

func (m GenerationMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *GenerationMode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "llm":
		*m = ModeLLM
	case "fallback":
		*m = ModeFallback
	default:
		return fmt.Errorf("unknown generation mode %q", b)
	}
	return nil
}

// TurnResult is the outcome of one HandleTurn call.
type TurnResult struct {
	Content     string
	Mode        GenerationMode
	ContextUsed bool
}

// Reply is what the chat boundary sends back to the visitor.
type Reply struct {
	Content     string         `json:"content"`
	Timestamp   string         `json:"timestamp"`
	ContextUsed bool           `json:"contextUsed"`
	Mode        GenerationMode `json:"mode"`
}

// --- Knowledge ---

// KnowledgeFacts are the structured fields derived from resume + portfolio text.
type KnowledgeFacts struct {
	Skills     []string `json:"skills"`
	Projects   []string `json:"projects"`
	Experience []string `json:"experience"`
}

// KnowledgeDocument is one complete, immutable load of the knowledge base.
type KnowledgeDocument struct {
	ResumeText      string
	ResumeSource    string // "file" or "sample"
	ResumeDigest    string // sha256 of the resume bytes, "" when absent
	PortfolioText   string
	PortfolioSource string // "web" or "sample"
	PortfolioURL    string
	KnowledgeFacts
	LoadedAt time.Time
}

// KnowledgeStatus summarises the current document for admin views.
type KnowledgeStatus struct {
	Initialized     bool      `json:"initialized"`
	HasResume       bool      `json:"hasResume"`
	HasPortfolio    bool      `json:"hasPortfolio"`
	ResumeSource    string    `json:"resumeSource,omitempty"`
	PortfolioSource string    `json:"portfolioSource,omitempty"`
	PortfolioURL    string    `json:"portfolioUrl"`
	SkillsCount     int       `json:"skillsCount"`
	ProjectsCount   int       `json:"projectsCount"`
	ExperienceCount int       `json:"experienceCount"`
	LoadedAt        time.Time `json:"loadedAt,omitzero"`
}
