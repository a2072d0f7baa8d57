package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/location-matcher/app/config"
	"github.com/location-matcher/internal/search"
	"github.com/location-matcher/internal/store"
)

// Seeds the Meilisearch hierarchy index from the relational store. Run after
// hierarchy imports or bulk approvals.
func main() {
	appCfg := config.LoadApp()
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pg, err := store.NewPostgresStore(ctx, appCfg.PostgresURL, logger)
	if err != nil {
		logger.Fatal("postgres unavailable", zap.Error(err))
	}
	defer pg.Close()

	nodes, err := pg.LoadHierarchy(ctx)
	if err != nil {
		logger.Fatal("hierarchy load failed", zap.Error(err))
	}

	searcher := search.NewHierarchySearcher(appCfg.MeiliHost, appCfg.MeiliAPIKey, logger)
	if err := searcher.SeedIndex(nodes); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
	logger.Info("hierarchy index seeded", zap.Int("nodes", len(nodes)))
}
