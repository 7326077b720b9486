package engine

import (
	"strings"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	Port    string
	MCPPort string

	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int
	LLMTimeout         time.Duration

	PortfolioURL string
	FetchTimeout time.Duration
	ResumePath   string
	WatchResume  bool

	AssistantName string
	OwnerName     string

	SessionIdleTTL time.Duration
	RedisURL       string // empty = in-process session history
	DatabaseURL    string // empty = transcript archive disabled
	SettingsDB     string

	AdminPassword  string // empty = admin API disabled
	AdminJWTSecret string
	RateLimitRPS   float64
	RateLimitBurst int
	TrustProxy     bool
}

// Mode resolves the generation mode once: without an API key every turn is
// answered by the fallback composer for the whole process lifetime.
func (c Config) Mode() GenerationMode {
	if strings.TrimSpace(c.LLMAPIKey) == "" {
		return ModeFallback
	}
	return ModeLLM
}

// Persona returns the assistant/owner naming used in prompts and fallbacks.
func (c Config) Persona() Persona {
	p := Persona{AssistantName: c.AssistantName, OwnerName: c.OwnerName}
	if p.AssistantName == "" {
		p.AssistantName = "Alfred"
	}
	if p.OwnerName == "" {
		p.OwnerName = "Jeeva"
	}
	return p
}
