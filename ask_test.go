package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offlineEnv points every store at a temp dir and the portfolio at a 404,
// so commands run on sample data without network or API keys.
func offlineEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	envFile = filepath.Join(dir, "missing.env")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("RESUME_PATH", filepath.Join(dir, "resume.pdf"))
	t.Setenv("SETTINGS_DB", filepath.Join(dir, "settings.db"))
	t.Setenv("PORTFOLIO_URL", srv.URL)
	t.Setenv("FETCH_TIMEOUT", "2s")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")
}

func TestFactsCmd_WritesToCommandOutput(t *testing.T) {
	offlineEnv(t)
	var out bytes.Buffer
	factsCmd.SetOut(&out)
	t.Cleanup(func() { factsCmd.SetOut(nil) })

	require.NoError(t, factsCmd.RunE(factsCmd, nil))

	var got struct {
		Facts struct {
			Skills []string `json:"skills"`
		} `json:"facts"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got), out.String())
	assert.Contains(t, got.Facts.Skills, "React")
}

func TestAskCmd_FallbackAnswer(t *testing.T) {
	offlineEnv(t)
	var out bytes.Buffer
	askCmd.SetOut(&out)
	t.Cleanup(func() { askCmd.SetOut(nil) })

	require.NoError(t, askCmd.RunE(askCmd, []string{"what", "are", "your", "skills?"}))
	assert.True(t, strings.HasPrefix(out.String(), "[fallback]\n"), out.String())
	assert.Contains(t, out.String(), "Key skills:")
}
