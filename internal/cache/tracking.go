package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"wisefido-emergency/internal/config"
	"wisefido-emergency/internal/models"
)

// TrackingCache 行程进度与车队快照的 Redis 缓存。
// 前端轮询从这里读取，避免每次都打到调度服务本体；
// 键带短 TTL，过期即回源重算。
type TrackingCache struct {
	client *redis.Client
	config *config.Config
	logger *zap.Logger
}

// NewTrackingCache 创建跟踪缓存
func NewTrackingCache(client *redis.Client, cfg *config.Config, logger *zap.Logger) *TrackingCache {
	return &TrackingCache{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// trackingKey 行程进度缓存键，如 "emergency:dispatch:DSP-xxx:tracking"
func (c *TrackingCache) trackingKey(dispatchID string) string {
	return c.config.Dispatch.Cache.TrackingKeyPrefix + dispatchID + c.config.Dispatch.Cache.TrackingSuffix
}

// SetTripProgress 写入行程进度
func (c *TrackingCache) SetTripProgress(ctx context.Context, dispatchID string, progress *models.TripProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal trip progress: %w", err)
	}

	ttl := time.Duration(c.config.Dispatch.Cache.TrackingTTL) * time.Second
	if err := c.client.Set(ctx, c.trackingKey(dispatchID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache trip progress: %w", err)
	}
	return nil
}

// GetTripProgress 读取行程进度。缓存未命中返回 (nil, nil)。
func (c *TrackingCache) GetTripProgress(ctx context.Context, dispatchID string) (*models.TripProgress, error) {
	data, err := c.client.Get(ctx, c.trackingKey(dispatchID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trip progress: %w", err)
	}

	var progress models.TripProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trip progress: %w", err)
	}
	return &progress, nil
}

// SetFleetSnapshot 写入车队快照
func (c *TrackingCache) SetFleetSnapshot(ctx context.Context, fleet []models.Ambulance) error {
	data, err := json.Marshal(fleet)
	if err != nil {
		return fmt.Errorf("failed to marshal fleet snapshot: %w", err)
	}

	ttl := time.Duration(c.config.Dispatch.Cache.FleetTTL) * time.Second
	if err := c.client.Set(ctx, c.config.Dispatch.Cache.FleetKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache fleet snapshot: %w", err)
	}
	return nil
}

// GetFleetSnapshot 读取车队快照。缓存未命中返回 (nil, nil)。
func (c *TrackingCache) GetFleetSnapshot(ctx context.Context) ([]models.Ambulance, error) {
	data, err := c.client.Get(ctx, c.config.Dispatch.Cache.FleetKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fleet snapshot: %w", err)
	}

	var fleet []models.Ambulance
	if err := json.Unmarshal(data, &fleet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fleet snapshot: %w", err)
	}
	return fleet, nil
}
