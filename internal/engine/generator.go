package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// TimestampFormat is the ISO-8601 layout used in replies.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// GeneratorConfig wires a Generator. Mode is resolved once by the caller.
type GeneratorConfig struct {
	Mode      GenerationMode
	Knowledge *KnowledgeStore
	History   SessionHistory
	Completer Completer // unused in ModeFallback
	Persona   Persona
}

// Generator runs chat turns: normalize, retrieve context, build prompt,
// call the LLM or the fallback composer, then record history.
type Generator struct {
	mode      GenerationMode
	knowledge *KnowledgeStore
	history   SessionHistory
	completer Completer
	prompts   *PromptBuilder
	fallback  *FallbackComposer
	locks     *sessionLocks
	now       func() time.Time
}

func NewGenerator(c GeneratorConfig) *Generator {
	mode := c.Mode
	if c.Completer == nil {
		mode = ModeFallback
	}
	return &Generator{
		mode:      mode,
		knowledge: c.Knowledge,
		history:   c.History,
		completer: c.Completer,
		prompts:   NewPromptBuilder(c.Persona),
		fallback:  NewFallbackComposer(c.Knowledge, c.Persona),
		locks:     newSessionLocks(),
		now:       time.Now,
	}
}

// Mode reports the generation mode fixed at construction.
func (g *Generator) Mode() GenerationMode { return g.mode }

// Knowledge returns the store used for context lookups.
func (g *Generator) Knowledge() *KnowledgeStore { return g.knowledge }

// HandleTurn answers one message. Turns of the same session run one at a
// time, in arrival order at the lock. LLM failures degrade to the fallback
// composer; anything else unexpected is returned as ErrProcessing.
func (g *Generator) HandleTurn(ctx context.Context, raw, sessionID string) (res TurnResult, err error) {
	unlock := g.locks.lock(sessionID)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("generator: turn panicked", slog.String("session", sessionID), slog.Any("panic", r))
			res, err = TurnResult{}, fmt.Errorf("%w: panic: %v", ErrProcessing, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return TurnResult{}, fmt.Errorf("%w: %w", ErrProcessing, err)
	}

	query := NormalizeUserInput(raw)
	knowledgeCtx := g.knowledge.ContextFor(query)
	res.ContextUsed = g.knowledge.Initialized() && knowledgeCtx != ""

	history, herr := g.history.RecentTurns(ctx, sessionID, PromptTurns)
	if herr != nil {
		slog.Warn("generator: history load failed", slog.String("session", sessionID), slog.Any("error", herr))
		history = nil
	}
	req := g.prompts.Build(query, knowledgeCtx, history)

	res.Content, res.Mode = g.generate(ctx, raw, knowledgeCtx, req)

	if err := g.history.Append(ctx, sessionID, UserTurn(query), AssistantTurn(res.Content)); err != nil {
		slog.Warn("generator: history append failed", slog.String("session", sessionID), slog.Any("error", err))
	}
	return res, nil
}

func (g *Generator) generate(ctx context.Context, raw, knowledgeCtx string, req CompletionRequest) (string, GenerationMode) {
	if g.mode == ModeLLM {
		var text string
		err := TrackOperation(ctx, "llm_complete", func(ctx context.Context) error {
			var cerr error
			text, cerr = g.completer.Complete(ctx, req)
			return cerr
		})
		if err == nil {
			return text, ModeLLM
		}
		gerr := &GenerationError{Err: err}
		slog.Warn("generator: llm failed, using fallback", slog.Any("error", gerr))
	}
	metrics.FallbackAnswers.Add(1)
	return g.fallback.Compose(raw, knowledgeCtx), ModeFallback
}

// ProcessMessage is the chat entry point. Callers validate message and
// sessionID first and map any error to a generic apology.
func (g *Generator) ProcessMessage(ctx context.Context, message, sessionID string) (Reply, error) {
	metrics.ChatRequests.Add(1)
	res, err := g.HandleTurn(ctx, message, sessionID)
	if err != nil {
		metrics.ChatErrors.Add(1)
		if !errors.Is(err, ErrProcessing) {
			err = fmt.Errorf("%w: %w", ErrProcessing, err)
		}
		return Reply{}, err
	}
	return Reply{
		Content:     res.Content,
		Timestamp:   g.now().UTC().Format(TimestampFormat),
		ContextUsed: res.ContextUsed,
		Mode:        res.Mode,
	}, nil
}

// ClearHistory forgets a session's turns.
func (g *Generator) ClearHistory(ctx context.Context, sessionID string) error {
	if err := g.history.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	metrics.SessionsCleared.Add(1)
	return nil
}

// RecentTurns exposes a session's stored turns, oldest first.
func (g *Generator) RecentTurns(ctx context.Context, sessionID string, n int) ([]Turn, error) {
	return g.history.RecentTurns(ctx, sessionID, n)
}

// ReinitializeKnowledge reloads resume and portfolio data.
func (g *Generator) ReinitializeKnowledge(ctx context.Context) {
	g.knowledge.Initialize(ctx)
}

// ReloadChangedResume reinitializes knowledge only if the resume file no
// longer matches the loaded document. Used by the resume watcher, whose
// events also fire for uploads that already reloaded.
func (g *Generator) ReloadChangedResume(ctx context.Context) {
	if !g.knowledge.ReloadIfResumeChanged(ctx) {
		slog.Debug("resume unchanged since last load, skipping reload")
	}
}
