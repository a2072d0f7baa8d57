package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
)

// HybridCacheService layers the in-process LRU (L1) over Redis (L2). Redis
// outages degrade to L1-only operation instead of failing lookups.
type HybridCacheService struct {
	memory *MemoryCacheService
	redis  *RedisCacheService
	logger *zap.Logger
}

func NewHybridCacheService(memory *MemoryCacheService, redis *RedisCacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{memory: memory, redis: redis, logger: logger}
}

func (s *HybridCacheService) Get(ctx context.Context, key string) (*models.MatchResult, bool, error) {
	if result, found, _ := s.memory.Get(ctx, key); found {
		return result, true, nil
	}

	result, found, err := s.redis.Get(ctx, key)
	if err != nil {
		s.logger.Warn("redis lookup failed, serving L1 only", zap.Error(err))
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}

	// Promote to L1 for the next lookup.
	_ = s.memory.Set(ctx, key, result)
	return result, true, nil
}

func (s *HybridCacheService) Set(ctx context.Context, key string, result *models.MatchResult) error {
	_ = s.memory.Set(ctx, key, result)
	if err := s.redis.Set(ctx, key, result); err != nil {
		s.logger.Warn("redis write failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (s *HybridCacheService) Delete(ctx context.Context, key string) error {
	_ = s.memory.Delete(ctx, key)
	return s.redis.Delete(ctx, key)
}

func (s *HybridCacheService) Clear(ctx context.Context) error {
	_ = s.memory.Clear(ctx)
	return s.redis.Clear(ctx)
}

func (s *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	memStats, err := s.memory.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	redisStats, err := s.redis.GetStats(ctx)
	if err != nil {
		// L1 stats are still meaningful on their own.
		return memStats, nil
	}
	memStats.TotalItems += redisStats.TotalItems
	return memStats, nil
}

func (s *HybridCacheService) Close() error {
	if err := s.memory.Close(); err != nil {
		return err
	}
	if err := s.redis.Close(); err != nil {
		return fmt.Errorf("close redis cache: %w", err)
	}
	return nil
}
