package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/matcher"
	"github.com/location-matcher/internal/store"
)

// ListingSource streams listings to process.
type ListingSource interface {
	ListListings(ctx context.Context, filter store.ListingFilter, fn func(*models.ListingInput) error) error
}

// ResultSink persists finished match results.
type ResultSink interface {
	SaveMatchResults(ctx context.Context, results []*models.MatchResult) error
}

// UnmatchedTracker records listings that ended a run unmatched.
type UnmatchedTracker interface {
	TrackUnmatched(ctx context.Context, listing *models.ListingInput, source string) error
}

// BatchStats summarizes one batch run.
type BatchStats struct {
	Processed int64         `json:"processed"`
	Matched   int64         `json:"matched"`
	Unmatched int64         `json:"unmatched"`
	CacheHits int64         `json:"cache_hits"`
	Elapsed   time.Duration `json:"elapsed"`
}

// MatchService matches listings against the hierarchy, fanning work out to a
// fixed pool of workers. Matching is read-heavy and safe to parallelize; the
// discovery insert path serializes itself inside the hierarchy index.
type MatchService struct {
	logger    *zap.Logger
	orch      *matcher.Orchestrator
	source    ListingSource
	sink      ResultSink
	tracker   UnmatchedTracker
	cache     MatchCache
	workers   int
	batchSize int
	dryRun    bool
}

type MatchServiceOpts struct {
	Workers   int
	BatchSize int
	DryRun    bool
	Cache     MatchCache       // optional
	Tracker   UnmatchedTracker // optional
}

func NewMatchService(logger *zap.Logger, orch *matcher.Orchestrator, source ListingSource, sink ResultSink, opts MatchServiceOpts) *MatchService {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	return &MatchService{
		logger:    logger,
		orch:      orch,
		source:    source,
		sink:      sink,
		tracker:   opts.Tracker,
		cache:     opts.Cache,
		workers:   opts.Workers,
		batchSize: opts.BatchSize,
		dryRun:    opts.DryRun,
	}
}

// MatchOne resolves a single listing, consulting the cache first unless the
// caller opts out.
func (s *MatchService) MatchOne(ctx context.Context, listing *models.ListingInput, useCache bool) (*models.MatchResult, bool) {
	var key string
	if s.cache != nil && useCache {
		key = Fingerprint(listing)
		if cached, found, err := s.cache.Get(ctx, key); err == nil && found {
			// Cached results carry the fingerprint owner's external id.
			r := *cached
			r.ExternalID = listing.ExternalID
			return &r, true
		}
	}

	result := s.orch.Match(ctx, listing)
	if s.cache != nil && useCache {
		if err := s.cache.Set(ctx, key, result); err != nil {
			s.logger.Warn("cache write failed", zap.Error(err))
		}
	}
	return result, false
}

// RunBatch processes every listing selected by the filter and returns run
// statistics. In dry-run mode nothing is written to the sink or the tracker.
func (s *MatchService) RunBatch(ctx context.Context, filter store.ListingFilter) (*BatchStats, error) {
	start := time.Now()
	stats := &BatchStats{}

	listings := make(chan *models.ListingInput, s.workers*2)
	results := make(chan *models.MatchResult, s.batchSize)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(listings)
		return s.source.ListListings(ctx, filter, func(l *models.ListingInput) error {
			select {
			case listings <- l:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for l := range listings {
				result, cached := s.matchAndTrack(ctx, l)
				atomic.AddInt64(&stats.Processed, 1)
				if cached {
					atomic.AddInt64(&stats.CacheHits, 1)
				}
				if result.IsMatched() {
					atomic.AddInt64(&stats.Matched, 1)
				} else {
					atomic.AddInt64(&stats.Unmatched, 1)
				}
				select {
				case results <- result:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	g.Go(func() error {
		return s.flushResults(ctx, results)
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	s.logger.Info("batch run finished",
		zap.Int64("processed", stats.Processed),
		zap.Int64("matched", stats.Matched),
		zap.Int64("unmatched", stats.Unmatched),
		zap.Int64("cacheHits", stats.CacheHits),
		zap.Duration("elapsed", stats.Elapsed),
		zap.Bool("dryRun", s.dryRun))
	return stats, nil
}

func (s *MatchService) matchAndTrack(ctx context.Context, l *models.ListingInput) (*models.MatchResult, bool) {
	result, cached := s.MatchOne(ctx, l, true)
	if !result.IsMatched() && s.tracker != nil && !s.dryRun {
		if err := s.tracker.TrackUnmatched(ctx, l, "batch"); err != nil {
			s.logger.Warn("unmatched tracking failed",
				zap.Int64("externalId", l.ExternalID), zap.Error(err))
		}
	}
	return result, cached
}

func (s *MatchService) flushResults(ctx context.Context, results <-chan *models.MatchResult) error {
	buf := make([]*models.MatchResult, 0, s.batchSize)
	flush := func() error {
		if len(buf) == 0 || s.dryRun {
			buf = buf[:0]
			return nil
		}
		if err := s.sink.SaveMatchResults(ctx, buf); err != nil {
			return err
		}
		buf = buf[:0]
		return nil
	}

	for r := range results {
		buf = append(buf, r)
		if len(buf) >= s.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
