package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix = "session:"
	sessionIndex  = "sessions"
)

// RedisStorage implements the Storage interface using Redis. Each session
// is one JSON value with a TTL, and a sorted set indexes sessions by
// update time.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage connects to redisURL (redis://host:port/db).
func NewRedisStorage(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &RedisStorage{
		client: redis.NewClient(opt),
		logger: logger,
		ttl:    ttl,
	}, nil
}

// Client exposes the connection so the commit broadcaster can share it.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(delay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", attempts)
}

func (r *RedisStorage) SaveSession(ctx context.Context, gs *state.GameState) error {
	if gs == nil {
		return errors.New("session cannot be nil")
	}
	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal session", "game_id", gs.ID, "error", err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionPrefix+gs.ID.String(), data, r.ttl)
	pipe.ZAdd(ctx, sessionIndex, redis.Z{Score: float64(gs.UpdatedAt.UnixMilli()), Member: gs.ID.String()})
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save session", "game_id", gs.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	r.logger.Debug("Session saved", "game_id", gs.ID, "seq", gs.Seq)
	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	data, err := r.client.Get(ctx, sessionPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Session not found", "game_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load session", "game_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		r.logger.Error("Failed to unmarshal session", "game_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &gs, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionPrefix+id.String())
	pipe.ZRem(ctx, sessionIndex, id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete session", "game_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessions walks the index newest first and prunes entries whose
// snapshot has expired.
func (r *RedisStorage) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	ids, err := r.client.ZRevRange(ctx, sessionIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var out []SessionInfo
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			r.logger.Warn("Bad session id in index", "id", raw)
			r.client.ZRem(ctx, sessionIndex, raw)
			continue
		}
		gs, err := r.LoadSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if gs == nil {
			r.client.ZRem(ctx, sessionIndex, raw)
			continue
		}
		out = append(out, infoOf(gs))
	}
	return out, nil
}
