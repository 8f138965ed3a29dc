package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clubly/internal/config"
	"clubly/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	formKeyPrefix = "clubly:form:"
	rateKeyPrefix = "clubly:rate:"
)

var errNoRedis = errors.New("redis client is nil")

// RedisStateRepository keeps in-progress form state in Redis so that a
// restart does not lose half-filled forms.
type RedisStateRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a Redis client from the configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisStateRepository(client *redis.Client, ttl time.Duration) *RedisStateRepository {
	return &RedisStateRepository{
		client: client,
		ttl:    ttl,
	}
}

func formKey(userID int64) string {
	return fmt.Sprintf("%s%d", formKeyPrefix, userID)
}

func (r *RedisStateRepository) GetState(ctx context.Context, userID int64) (*models.FormState, error) {
	if r.client == nil {
		return nil, errNoRedis
	}
	val, err := r.client.Get(ctx, formKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get form state from redis: %w", err)
	}

	var state models.FormState
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form state: %w", err)
	}
	return &state, nil
}

func (r *RedisStateRepository) SetState(ctx context.Context, state *models.FormState) error {
	if r.client == nil {
		return errNoRedis
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal form state: %w", err)
	}
	if err := r.client.Set(ctx, formKey(state.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set form state in redis: %w", err)
	}
	return nil
}

func (r *RedisStateRepository) ClearState(ctx context.Context, userID int64) error {
	if r.client == nil {
		return errNoRedis
	}
	if err := r.client.Del(ctx, formKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete form state from redis: %w", err)
	}
	return nil
}

// CheckRateLimit counts updates of a user in a fixed window.
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNoRedis
	}
	key := fmt.Sprintf("%s%d", rateKeyPrefix, userID)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// Ping checks the Redis connection
func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return errNoRedis
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
