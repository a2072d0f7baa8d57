package services

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
)

// MemoryCacheService is the in-process L1 cache, an LRU over recent match
// results.
type MemoryCacheService struct {
	cache  *lru.Cache[string, *models.MatchResult]
	logger *zap.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func NewMemoryCacheService(size int, logger *zap.Logger) (*MemoryCacheService, error) {
	cache, err := lru.New[string, *models.MatchResult](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCacheService{cache: cache, logger: logger}, nil
}

func (s *MemoryCacheService) Get(_ context.Context, key string) (*models.MatchResult, bool, error) {
	if result, ok := s.cache.Get(key); ok {
		s.hits.Add(1)
		return result, true, nil
	}
	s.misses.Add(1)
	return nil, false, nil
}

func (s *MemoryCacheService) Set(_ context.Context, key string, result *models.MatchResult) error {
	s.cache.Add(key, result)
	return nil
}

func (s *MemoryCacheService) Delete(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

func (s *MemoryCacheService) Clear(_ context.Context) error {
	s.cache.Purge()
	return nil
}

func (s *MemoryCacheService) GetStats(_ context.Context) (*CacheStats, error) {
	hits, misses := s.hits.Load(), s.misses.Load()
	stats := &CacheStats{
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(s.cache.Len()),
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats, nil
}

func (s *MemoryCacheService) Close() error { return nil }
