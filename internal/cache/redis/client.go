package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medassist/backend/internal/llm"
	"github.com/medassist/backend/internal/metrics"
	"github.com/medassist/backend/pkg/logger"
)

// Client caches recent conversation context per session so the orchestrator can
// skip the history read on hot sessions. Strictly optional: every caller falls
// through to SQLite on a miss or error.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis context cache initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func contextKey(sessionID string) string {
	return "context:" + sessionID
}

func (c *Client) GetContext(ctx context.Context, sessionID string) ([]llm.ContextTurn, bool, error) {
	data, err := c.client.Get(ctx, contextKey(sessionID)).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("context").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get context cache: %w", err)
	}

	var turns []llm.ContextTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached context: %w", err)
	}

	metrics.CacheHits.WithLabelValues("context").Inc()
	logger.Debug("Context cache hit", zap.String("session_id", sessionID))
	return turns, true, nil
}

func (c *Client) SetContext(ctx context.Context, sessionID string, turns []llm.ContextTurn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}

	if err := c.client.Set(ctx, contextKey(sessionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set context cache: %w", err)
	}

	return nil
}

func (c *Client) InvalidateContext(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, contextKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate context cache: %w", err)
	}
	return nil
}
