package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Exchange is one archived chat turn.
type Exchange struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"sessionId"`
	UserMessage string    `json:"userMessage"`
	Reply       string    `json:"reply"`
	Mode        string    `json:"mode"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Transcripts archives chat turns in Postgres.
type Transcripts struct {
	pool *pgxpool.Pool
}

// ConnectTranscripts creates a pgx pool and runs schema migrations.
func ConnectTranscripts(ctx context.Context, databaseURL string) (*Transcripts, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 5
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	t := &Transcripts{pool: pool}
	if err := t.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("transcripts postgres connected", slog.String("addr", config.ConnConfig.Host))
	return t, nil
}

func (t *Transcripts) Close() { t.pool.Close() }

func (t *Transcripts) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := t.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Record archives one exchange.
func (t *Transcripts) Record(ctx context.Context, e Exchange) error {
	_, err := t.pool.Exec(ctx,
		`INSERT INTO chat_transcripts (session_id, user_message, reply, mode) VALUES ($1, $2, $3, $4)`,
		e.SessionID, e.UserMessage, e.Reply, e.Mode)
	if err != nil {
		return fmt.Errorf("record transcript: %w", err)
	}
	return nil
}

// List returns the newest exchanges first, optionally for one session.
func (t *Transcripts) List(ctx context.Context, sessionID string, limit int) ([]Exchange, error) {
	limit = clampLimit(limit)
	var (
		rows pgx.Rows
		err  error
	)
	if sessionID == "" {
		rows, err = t.pool.Query(ctx,
			`SELECT id, session_id, user_message, reply, mode, created_at
			   FROM chat_transcripts ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	} else {
		rows, err = t.pool.Query(ctx,
			`SELECT id, session_id, user_message, reply, mode, created_at
			   FROM chat_transcripts WHERE session_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
			sessionID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Exchange])
	if err != nil {
		return nil, fmt.Errorf("scan transcripts: %w", err)
	}
	return out, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultListLimit
	case n > maxListLimit:
		return maxListLimit
	}
	return n
}
