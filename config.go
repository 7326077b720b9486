package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/joho/godotenv"

	"github.com/anatolykoptev/go_alfred/internal/engine"
	"github.com/anatolykoptev/go_alfred/internal/storage"
)

// loadConfig reads the optional dotenv file, then the environment.
func loadConfig() engine.Config {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("dotenv load failed", slog.String("file", envFile), slog.Any("error", err))
	}
	return engine.Config{
		Port:               env.Str("PORT", "3000"),
		MCPPort:            env.Str("MCP_PORT", "8892"),
		LLMAPIKey:          env.Str("LLM_API_KEY", env.Str("GROQ_API_KEY", "")),
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:         env.Str("LLM_API_BASE", "https://api.groq.com/openai/v1"),
		LLMModel:           env.Str("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMTemperature:     env.Float("LLM_TEMPERATURE", 0.5),
		LLMMaxTokens:       env.Int("LLM_MAX_TOKENS", 400),
		LLMTimeout:         env.Duration("LLM_TIMEOUT", 60*time.Second),
		PortfolioURL:       env.Str("PORTFOLIO_URL", engine.DefaultPortfolioURL),
		FetchTimeout:       env.Duration("FETCH_TIMEOUT", 10*time.Second),
		ResumePath:         env.Str("RESUME_PATH", "data/resume.pdf"),
		WatchResume:        envBool("WATCH_RESUME", true),
		AssistantName:      env.Str("ASSISTANT_NAME", "Alfred"),
		OwnerName:          env.Str("OWNER_NAME", "Jeeva"),
		SessionIdleTTL:     env.Duration("SESSION_IDLE_TTL", 24*time.Hour),
		RedisURL:           env.Str("REDIS_URL", ""),
		DatabaseURL:        env.Str("DATABASE_URL", ""),
		SettingsDB:         env.Str("SETTINGS_DB", "data/settings.db"),
		AdminPassword:      env.Str("ADMIN_PASSWORD", ""),
		AdminJWTSecret:     env.Str("ADMIN_JWT_SECRET", ""),
		RateLimitRPS:       env.Float("RATE_LIMIT_RPS", 1),
		RateLimitBurst:     env.Int("RATE_LIMIT_BURST", 5),
		TrustProxy:         envBool("TRUST_PROXY", false),
	}
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(env.Str(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return v
}

// app is the wired engine plus its optional stores.
type app struct {
	cfg         engine.Config
	gen         *engine.Generator
	settings    *storage.Settings
	transcripts *storage.Transcripts
	history     engine.SessionHistory
	closers     []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires the engine. External stores (Redis, Postgres) are only
// connected when withStores is set; failures there degrade to in-process
// or disabled stores.
func buildApp(ctx context.Context, cfg engine.Config, withStores bool) *app {
	a := &app{cfg: cfg}
	persona := cfg.Persona()

	settings, err := storage.OpenSettings(cfg.SettingsDB, storage.DefaultWidgetSettings(persona.AssistantName, persona.OwnerName))
	if err != nil {
		slog.Warn("settings store unavailable, using defaults", slog.Any("error", err))
	} else {
		a.settings = settings
		a.closers = append(a.closers, func() { settings.Close() })
		if u, err := settings.PortfolioURL(ctx); err == nil && u != "" {
			cfg.PortfolioURL = u
			slog.Info("portfolio url override loaded", slog.String("url", u))
		}
	}

	knowledge := engine.NewKnowledgeStore(engine.KnowledgeConfig{
		ResumePath:   cfg.ResumePath,
		PortfolioURL: cfg.PortfolioURL,
		Fetcher:      engine.NewPortfolioFetcher(cfg.FetchTimeout),
	})

	a.history = engine.NewMemoryHistory(cfg.SessionIdleTTL)
	if withStores && cfg.RedisURL != "" {
		rh, err := engine.NewRedisHistory(ctx, cfg.RedisURL, cfg.SessionIdleTTL)
		if err != nil {
			slog.Warn("redis history unavailable, using memory", slog.Any("error", err))
		} else {
			a.history = rh
			a.closers = append(a.closers, func() { rh.Close() })
		}
	}

	if withStores && cfg.DatabaseURL != "" {
		tr, err := storage.ConnectTranscripts(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Warn("transcript archive disabled", slog.Any("error", err))
		} else {
			a.transcripts = tr
			a.closers = append(a.closers, tr.Close)
		}
	}

	mode := cfg.Mode()
	var completer engine.Completer
	if mode == engine.ModeLLM {
		client := llm.NewClient(cfg.LLMAPIBase, cfg.LLMAPIKey, cfg.LLMModel,
			llm.WithFallbackKeys(cfg.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(cfg.LLMMaxTokens),
			llm.WithTemperature(cfg.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout}),
		)
		completer = engine.NewKitCompleter(client, cfg.LLMTemperature, cfg.LLMMaxTokens)
	} else {
		slog.Warn("no LLM API key configured, answering in fallback mode")
	}

	a.gen = engine.NewGenerator(engine.GeneratorConfig{
		Mode:      mode,
		Knowledge: knowledge,
		History:   a.history,
		Completer: completer,
		Persona:   persona,
	})
	a.cfg = cfg
	return a
}
