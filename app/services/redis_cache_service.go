package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
)

const redisKeyPrefix = "match:"

// RedisCacheService is the shared L2 cache, surviving process restarts and
// visible to every worker.
type RedisCacheService struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCacheService(url string, ttl time.Duration, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCacheService{client: client, ttl: ttl, logger: logger}, nil
}

func (s *RedisCacheService) Get(ctx context.Context, key string) (*models.MatchResult, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var result models.MatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		s.logger.Warn("corrupt cache entry", zap.String("key", key), zap.Error(err))
		s.client.Del(ctx, redisKeyPrefix+key)
		return nil, false, nil
	}
	return &result, true, nil
}

func (s *RedisCacheService) Set(ctx context.Context, key string, result *models.MatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal match result: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisCacheService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (s *RedisCacheService) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (s *RedisCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	var count int64
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return &CacheStats{TotalItems: count}, nil
}

func (s *RedisCacheService) Close() error {
	return s.client.Close()
}
