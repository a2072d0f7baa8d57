package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/location-matcher/app/config"
	"github.com/location-matcher/app/services"
	"github.com/location-matcher/internal/discovery"
	"github.com/location-matcher/internal/hierarchy"
	"github.com/location-matcher/internal/matcher"
	"github.com/location-matcher/internal/store"
)

// Long-running variant of the batch runner: picks up newly scraped listings
// on an interval. The hierarchy index is rebuilt between cycles so approvals
// made through the API become visible.
func main() {
	interval := flag.Duration("interval", 5*time.Minute, "delay between incremental matching cycles")
	flag.Parse()

	appCfg := config.LoadApp()
	logger := initLogger(appCfg.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := store.NewPostgresStore(ctx, appCfg.PostgresURL, logger)
	if err != nil {
		logger.Fatal("postgres unavailable", zap.Error(err))
	}
	defer pg.Close()

	var queue *store.ReviewQueue
	if q, err := store.NewReviewQueue(ctx, appCfg.MongoURI, appCfg.MongoDB, logger); err != nil {
		logger.Warn("review queue unavailable, staging disabled", zap.Error(err))
	} else {
		queue = q
		defer queue.Close(context.Background())
	}

	logger.Info("matching worker started", zap.Duration("interval", *interval))
	for {
		if err := runCycle(ctx, appCfg, pg, queue, logger); err != nil {
			logger.Error("matching cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Info("worker exiting")
			return
		case <-time.After(*interval):
		}
	}
}

func runCycle(ctx context.Context, appCfg *config.AppCfg, pg *store.PostgresStore, queue *store.ReviewQueue, logger *zap.Logger) error {
	nodes, err := pg.LoadHierarchy(ctx)
	if err != nil {
		return err
	}
	index := hierarchy.NewIndex(logger, nodes, pg)

	var staging discovery.StagingWriter
	var tracker services.UnmatchedTracker
	if queue != nil {
		staging = queue
		tracker = queue
	}

	text := matcher.NewTextPatternMatcher(logger, &config.C)
	orch := matcher.NewOrchestrator(logger, index,
		matcher.NewCoordinateMatcher(logger, index, &config.C),
		text,
		matcher.NewDepartmentDisambiguator(logger, index, text),
		discovery.New(logger, index, &config.C, staging))

	svc := services.NewMatchService(logger, orch, pg, pg, services.MatchServiceOpts{
		Workers:   appCfg.Workers,
		BatchSize: appCfg.BatchSize,
		Tracker:   tracker,
	})

	stats, err := svc.RunBatch(ctx, store.ListingFilter{OnlyUnprocessed: true})
	if err != nil {
		return err
	}
	if stats.Processed > 0 {
		logger.Info("cycle complete",
			zap.Int64("processed", stats.Processed),
			zap.Int64("matched", stats.Matched),
			zap.Int64("unmatched", stats.Unmatched))
	}
	return nil
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
