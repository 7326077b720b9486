package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const historyKeyPrefix = "alfred:history:"

// RedisHistory keeps session logs in Redis lists so they survive restarts
// and are shared between instances. Idle sessions expire via key TTL.
type RedisHistory struct {
	rdb     *redis.Client
	idleTTL time.Duration
}

// NewRedisHistory connects to redisURL and verifies it with a ping.
func NewRedisHistory(ctx context.Context, redisURL string, idleTTL time.Duration) (*RedisHistory, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("history: redis connected", slog.String("addr", opts.Addr))
	return &RedisHistory{rdb: rdb, idleTTL: idleTTL}, nil
}

func historyKey(sessionID string) string { return historyKeyPrefix + sessionID }

func (h *RedisHistory) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]any, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		values = append(values, data)
	}

	key := historyKey(sessionID)
	pipe := h.rdb.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -MaxStoredTurns, -1)
	if h.idleTTL > 0 {
		pipe.Expire(ctx, key, h.idleTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (h *RedisHistory) RecentTurns(ctx context.Context, sessionID string, n int) ([]Turn, error) {
	if n <= 0 {
		return []Turn{}, nil
	}
	raw, err := h.rdb.LRange(ctx, historyKey(sessionID), -int64(n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			slog.Debug("history: skipping corrupt turn", slog.String("session", sessionID), slog.Any("error", err))
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (h *RedisHistory) Clear(ctx context.Context, sessionID string) error {
	if err := h.rdb.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (h *RedisHistory) Close() error {
	return h.rdb.Close()
}
