// Package storage persists admin settings (SQLite) and chat transcripts (Postgres).
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

const (
	keyVoiceEnabled   = "voice_enabled"
	keyPersonality    = "personality"
	keyWelcomeMessage = "welcome_message"
	keyPortfolioURL   = "portfolio_url"
)

// WidgetSettings are the user-facing chat widget preferences.
type WidgetSettings struct {
	VoiceEnabled   bool   `json:"voiceEnabled"`
	Personality    string `json:"personality"`
	WelcomeMessage string `json:"welcomeMessage"`
}

// DefaultWidgetSettings returns the settings used before any admin update.
func DefaultWidgetSettings(assistant, owner string) WidgetSettings {
	return WidgetSettings{
		VoiceEnabled:   true,
		Personality:    "professional",
		WelcomeMessage: fmt.Sprintf("Good day! I'm %s, %s's personal AI assistant. How may I assist you today?", assistant, owner),
	}
}

// Settings is a key/value settings table in a local SQLite file.
type Settings struct {
	db       *sql.DB
	defaults WidgetSettings
}

// OpenSettings opens (or creates) the SQLite settings database at path.
func OpenSettings(path string, defaults WidgetSettings) (*Settings, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("settings: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("settings: init schema: %w", err)
	}
	return &Settings{db: db, defaults: defaults}, nil
}

func (s *Settings) Close() error { return s.db.Close() }

func (s *Settings) get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("settings: get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Settings) set(ctx context.Context, tx *sql.Tx, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	if err != nil {
		return fmt.Errorf("settings: set %s: %w", key, err)
	}
	return nil
}

// Widget returns stored widget settings, with defaults for unset keys.
func (s *Settings) Widget(ctx context.Context) (WidgetSettings, error) {
	out := s.defaults
	if v, ok, err := s.get(ctx, keyVoiceEnabled); err != nil {
		return out, err
	} else if ok {
		out.VoiceEnabled, _ = strconv.ParseBool(v)
	}
	if v, ok, err := s.get(ctx, keyPersonality); err != nil {
		return out, err
	} else if ok {
		out.Personality = v
	}
	if v, ok, err := s.get(ctx, keyWelcomeMessage); err != nil {
		return out, err
	} else if ok {
		out.WelcomeMessage = v
	}
	return out, nil
}

// SaveWidget stores all widget settings in one transaction.
func (s *Settings) SaveWidget(ctx context.Context, w WidgetSettings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settings: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.set(ctx, tx, keyVoiceEnabled, strconv.FormatBool(w.VoiceEnabled)); err != nil {
		return err
	}
	if err := s.set(ctx, tx, keyPersonality, w.Personality); err != nil {
		return err
	}
	if err := s.set(ctx, tx, keyWelcomeMessage, w.WelcomeMessage); err != nil {
		return err
	}
	return tx.Commit()
}

// PortfolioURL returns the admin override, or "" when none is stored.
func (s *Settings) PortfolioURL(ctx context.Context) (string, error) {
	v, _, err := s.get(ctx, keyPortfolioURL)
	return v, err
}

// SetPortfolioURL stores the portfolio URL override.
func (s *Settings) SetPortfolioURL(ctx context.Context, u string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settings: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck
	if err := s.set(ctx, tx, keyPortfolioURL, u); err != nil {
		return err
	}
	return tx.Commit()
}
