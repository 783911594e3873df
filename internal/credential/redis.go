package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/report-generator/constants"
)

// kv is the subset of the redis client the store needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis keeps the credential under <prefix>gemini_api_key.
type Redis struct {
	client kv
	key    string
	logger *slog.Logger
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedis dials nothing; the first command opens the connection.
func NewRedis(opts RedisOptions, logger *slog.Logger) (*Redis, *redis.Client) {
	c := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	return newRedis(c, opts.Prefix, logger), c
}

func newRedis(c kv, prefix string, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: c, key: prefix + constants.CredentialKey, logger: logger}
}

func (r *Redis) Get(ctx context.Context) (string, error) {
	v, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		r.logger.Error("credential.read.failed", "backend", "redis", "error", err)
		return "", fmt.Errorf("read credential: %w", err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return r.Clear(ctx)
	}
	if err := r.client.Set(ctx, r.key, v, 0).Err(); err != nil {
		r.logger.Error("credential.write.failed", "backend", "redis", "error", err)
		return fmt.Errorf("store credential: %w", err)
	}
	r.logger.Info("credential.saved", "backend", "redis")
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		r.logger.Error("credential.clear.failed", "backend", "redis", "error", err)
		return fmt.Errorf("clear credential: %w", err)
	}
	r.logger.Info("credential.cleared", "backend", "redis")
	return nil
}
