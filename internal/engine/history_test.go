package engine

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMemoryHistory_FIFOEviction(t *testing.T) {
	h := NewMemoryHistory(0)
	ctx := context.Background()

	for i := range 25 {
		require.NoError(t, h.Append(ctx, "session-abc123", UserTurn(fmt.Sprintf("m%d", i))))
	}
	got, err := h.RecentTurns(ctx, "session-abc123", 1000)
	require.NoError(t, err)
	require.Len(t, got, MaxStoredTurns)
	assert.Equal(t, "m5", got[0].Content)
	assert.Equal(t, "m24", got[len(got)-1].Content)
}

func TestMemoryHistory_UnknownSession(t *testing.T) {
	h := NewMemoryHistory(0)
	ctx := context.Background()

	got, err := h.RecentTurns(ctx, "never-seen-session", 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, h.Clear(ctx, "never-seen-session"))
}

func TestMemoryHistory_ClearRoundTrip(t *testing.T) {
	h := NewMemoryHistory(0)
	ctx := context.Background()
	require.NoError(t, h.Append(ctx, "session-abc123", UserTurn("hi"), AssistantTurn("- hello")))
	require.NoError(t, h.Clear(ctx, "session-abc123"))

	got, err := h.RecentTurns(ctx, "session-abc123", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, h.Len())
}

func TestMemoryHistory_RecentTurnsIsCopy(t *testing.T) {
	h := NewMemoryHistory(0)
	ctx := context.Background()
	require.NoError(t, h.Append(ctx, "session-abc123", UserTurn("original")))

	got, _ := h.RecentTurns(ctx, "session-abc123", 10)
	got[0].Content = "mutated"

	again, _ := h.RecentTurns(ctx, "session-abc123", 10)
	assert.Equal(t, "original", again[0].Content)
}

func TestMemoryHistory_Sweep(t *testing.T) {
	h := NewMemoryHistory(time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, h.Append(ctx, "old-session-1", UserTurn("a")))
	now = now.Add(2 * time.Hour)
	require.NoError(t, h.Append(ctx, "new-session-1", UserTurn("b")))

	assert.Equal(t, 1, h.Sweep())
	assert.Equal(t, 1, h.Len())
	got, _ := h.RecentTurns(ctx, "new-session-1", 10)
	assert.Len(t, got, 1)
}

func TestMemoryHistory_SweepDisabled(t *testing.T) {
	h := NewMemoryHistory(0)
	require.NoError(t, h.Append(context.Background(), "session-abc123", UserTurn("a")))
	assert.Equal(t, 0, h.Sweep())
}

// Property: the log always holds the last min(total, MaxStoredTurns)
// appended turns, oldest first.
func TestMemoryHistory_Property_KeepsTail(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := NewMemoryHistory(0)
		ctx := context.Background()
		n := rapid.IntRange(0, 60).Draw(rt, "appends")
		var all []Turn
		for i := range n {
			turn := Turn{
				Role:    rapid.SampledFrom([]Role{RoleUser, RoleAssistant}).Draw(rt, "role"),
				Content: fmt.Sprintf("t%d", i),
			}
			all = append(all, turn)
			if err := h.Append(ctx, "prop-session", turn); err != nil {
				rt.Fatalf("Append: %v", err)
			}
		}
		k := rapid.IntRange(1, 40).Draw(rt, "window")
		got, err := h.RecentTurns(ctx, "prop-session", k)
		if err != nil {
			rt.Fatalf("RecentTurns: %v", err)
		}
		stored := all[max(len(all)-MaxStoredTurns, 0):]
		want := stored[max(len(stored)-k, 0):]
		if len(got) != len(want) {
			rt.Fatalf("len = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				rt.Fatalf("turn %d = %+v, want %+v", i, got[i], want[i])
			}
		}
	})
}

func TestRedisHistory(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	h, err := NewRedisHistory(ctx, url, time.Minute)
	require.NoError(t, err)
	defer h.Close()

	sid := "test-" + uuid.NewString()
	defer h.Clear(ctx, sid)
	for i := range 25 {
		require.NoError(t, h.Append(ctx, sid, UserTurn(fmt.Sprintf("m%d", i))))
	}
	got, err := h.RecentTurns(ctx, sid, 1000)
	require.NoError(t, err)
	require.Len(t, got, MaxStoredTurns)
	assert.Equal(t, "m5", got[0].Content)
	assert.Equal(t, RoleUser, got[0].Role)

	require.NoError(t, h.Clear(ctx, sid))
	got, err = h.RecentTurns(ctx, sid, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
