package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/location-matcher/app/config"
	"github.com/location-matcher/app/controllers"
	"github.com/location-matcher/app/services"
	"github.com/location-matcher/internal/discovery"
	"github.com/location-matcher/internal/hierarchy"
	"github.com/location-matcher/internal/matcher"
	"github.com/location-matcher/internal/search"
	"github.com/location-matcher/internal/store"
	"github.com/location-matcher/routes"
)

func main() {
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

	queue, err := store.NewReviewQueue(ctx, appCfg.MongoURI, appCfg.MongoDB, logger)
	if err != nil {
		logger.Fatal("review queue unavailable", zap.Error(err))
	}
	defer queue.Close(context.Background())

	nodes, err := pg.LoadHierarchy(ctx)
	if err != nil {
		logger.Fatal("hierarchy load failed", zap.Error(err))
	}
	index := hierarchy.NewIndex(logger, nodes, pg)

	text := matcher.NewTextPatternMatcher(logger, &config.C)
	orch := matcher.NewOrchestrator(logger, index,
		matcher.NewCoordinateMatcher(logger, index, &config.C),
		text,
		matcher.NewDepartmentDisambiguator(logger, index, text),
		discovery.New(logger, index, &config.C, queue))

	cache := buildCache(appCfg, logger)
	if cache != nil {
		defer cache.Close()
	}

	matchService := services.NewMatchService(logger, orch, pg, pg, services.MatchServiceOpts{
		Workers: appCfg.Workers,
		Cache:   cache,
		Tracker: queue,
	})
	reviewService := services.NewReviewService(logger, queue, index)

	matchController := controllers.NewMatchController(matchService, cache, logger)
	reviewController := controllers.NewReviewController(reviewService, logger)

	var searchController *controllers.SearchController
	if appCfg.MeiliHost != "" {
		searcher := search.NewHierarchySearcher(appCfg.MeiliHost, appCfg.MeiliAPIKey, logger)
		searchController = controllers.NewSearchController(searcher, logger)
	}

	if appCfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	routes.Register(router, matchController, reviewController, searchController)

	srv := &http.Server{
		Addr:    ":" + appCfg.APIPort,
		Handler: router,
	}
	go func() {
		logger.Info("api server listening", zap.String("port", appCfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
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
