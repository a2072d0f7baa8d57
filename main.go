package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/location-matcher/app/config"
	"github.com/location-matcher/app/services"
	"github.com/location-matcher/internal/discovery"
	"github.com/location-matcher/internal/hierarchy"
	"github.com/location-matcher/internal/matcher"
	"github.com/location-matcher/internal/store"
)

func main() {
	var (
		full    = flag.Bool("full", false, "reprocess every listing, including already matched ones")
		dryRun  = flag.Bool("dry-run", false, "match without writing results, inserts or staging records")
		limit   = flag.Int("limit", 0, "process at most N listings (0 = all)")
		profile = flag.String("profile", "", "path to a matcher tuning profile (YAML)")
		workers = flag.Int("workers", 0, "worker pool size (0 = from environment)")
	)
	flag.Parse()

	appCfg := config.LoadApp()
	logger := initLogger(appCfg.Env)
	defer logger.Sync()

	if *profile != "" {
		if err := config.LoadMatcherProfile(*profile); err != nil {
			logger.Fatal("could not load matcher profile", zap.String("path", *profile), zap.Error(err))
		}
	}
	if *workers > 0 {
		appCfg.Workers = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := store.NewPostgresStore(ctx, appCfg.PostgresURL, logger)
	if err != nil {
		logger.Fatal("postgres unavailable", zap.Error(err))
	}
	defer pg.Close()

	// A missing review queue only disables staging and unmatched tracking.
	var queue *store.ReviewQueue
	if q, err := store.NewReviewQueue(ctx, appCfg.MongoURI, appCfg.MongoDB, logger); err != nil {
		logger.Warn("review queue unavailable, staging disabled", zap.Error(err))
	} else {
		queue = q
		defer queue.Close(context.Background())
	}

	nodes, err := pg.LoadHierarchy(ctx)
	if err != nil {
		// Matching without the reference levels would mislabel everything.
		logger.Fatal("hierarchy load failed", zap.Error(err))
	}

	var inserter hierarchy.Level2Inserter
	var staging discovery.StagingWriter
	var tracker services.UnmatchedTracker
	if !*dryRun {
		inserter = pg
		if queue != nil {
			staging = queue
			tracker = queue
		}
	}

	index := hierarchy.NewIndex(logger, nodes, inserter)
	text := matcher.NewTextPatternMatcher(logger, &config.C)
	orch := matcher.NewOrchestrator(logger, index,
		matcher.NewCoordinateMatcher(logger, index, &config.C),
		text,
		matcher.NewDepartmentDisambiguator(logger, index, text),
		discovery.New(logger, index, &config.C, staging))

	// Dry runs skip the cache too: their results reflect disabled inserts
	// and must not leak into real runs.
	var cache services.MatchCache
	if !*dryRun {
		cache = buildCache(appCfg, logger)
	}
	if cache != nil {
		defer cache.Close()
	}

	svc := services.NewMatchService(logger, orch, pg, pg, services.MatchServiceOpts{
		Workers:   appCfg.Workers,
		BatchSize: appCfg.BatchSize,
		DryRun:    *dryRun,
		Cache:     cache,
		Tracker:   tracker,
	})

	filter := store.ListingFilter{OnlyUnprocessed: !*full, Limit: *limit}
	stats, err := svc.RunBatch(ctx, filter)
	if err != nil {
		logger.Error("batch run failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("done",
		zap.Int64("processed", stats.Processed),
		zap.Int64("matched", stats.Matched),
		zap.Int64("unmatched", stats.Unmatched))
}

func initLogger(env string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

// buildCache assembles the hybrid cache, degrading to in-memory only when
// Redis is unreachable.
func buildCache(cfg *config.AppCfg, logger *zap.Logger) services.MatchCache {
	mem, err := services.NewMemoryCacheService(10000, logger)
	if err != nil {
		logger.Warn("memory cache disabled", zap.Error(err))
		return nil
	}
	redisCache, err := services.NewRedisCacheService(cfg.RedisURL, cfg.CacheTTL, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory cache only", zap.Error(err))
		return mem
	}
	return services.NewHybridCacheService(mem, redisCache, logger)
}
