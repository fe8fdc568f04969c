// Package cache keeps recently computed risk reports in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mamadbah2/swinewatch/internal/domain/models"
)

// ErrMiss is returned when no cached report exists for a pig.
var ErrMiss = errors.New("risk report not cached")

const keyPrefix = "swinewatch:risk:"

// RiskCache stores RiskReport values as JSON, one key per pig.
type RiskCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRiskCache wraps a redis client.
func NewRiskCache(client *redis.Client, ttl time.Duration) *RiskCache {
	return &RiskCache{client: client, ttl: ttl}
}

func key(pigID string) string {
	return keyPrefix + pigID
}

// Get returns the cached report of pigID or ErrMiss.
func (c *RiskCache) Get(ctx context.Context, pigID string) (models.RiskReport, error) {
	raw, err := c.client.Get(ctx, key(pigID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.RiskReport{}, ErrMiss
	}
	if err != nil {
		return models.RiskReport{}, fmt.Errorf("get cached risk %s: %w", pigID, err)
	}

	var report models.RiskReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return models.RiskReport{}, fmt.Errorf("decode cached risk %s: %w", pigID, err)
	}
	return report, nil
}

// Set stores report under its pig id.
func (c *RiskCache) Set(ctx context.Context, report models.RiskReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode risk %s: %w", report.PigID, err)
	}
	if err := c.client.Set(ctx, key(report.PigID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache risk %s: %w", report.PigID, err)
	}
	return nil
}

// Invalidate drops the cached report of pigID.
func (c *RiskCache) Invalidate(ctx context.Context, pigID string) error {
	if err := c.client.Del(ctx, key(pigID)).Err(); err != nil {
		return fmt.Errorf("invalidate risk %s: %w", pigID, err)
	}
	return nil
}

// NewRedisClient builds a client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}
