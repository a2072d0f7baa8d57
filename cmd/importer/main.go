package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/location-matcher/app/config"
	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/normalizer"
)

// rawNode is the shape of one entry in a hierarchy dump file.
type rawNode struct {
	ID        int      `json:"id"`
	Level     int      `json:"level"`
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases,omitempty"`
	ParentID  *int     `json:"parent_id,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Imports a hierarchy dump (JSON array of nodes) into the relational store.
// Existing rows with the same id are updated, so re-importing a refreshed
// dump is safe.
func main() {
	path := flag.String("file", "storage/hierarchy.json", "path to the hierarchy dump")
	flag.Parse()

	appCfg := config.LoadApp()
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	data, err := os.ReadFile(*path)
	if err != nil {
		logger.Fatal("could not read dump", zap.String("path", *path), zap.Error(err))
	}
	var raw []rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Fatal("could not parse dump", zap.Error(err))
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, appCfg.PostgresURL)
	if err != nil {
		logger.Fatal("postgres unavailable", zap.Error(err))
	}
	defer conn.Close(ctx)

	imported := 0
	for _, n := range raw {
		if n.Level < models.LevelNeighborhood || n.Level > models.LevelDepartment {
			logger.Warn("skipping node with unknown level", zap.Int("id", n.ID), zap.Int("level", n.Level))
			continue
		}
		if err := upsertNode(ctx, conn, &n); err != nil {
			logger.Fatal("import failed", zap.Int("id", n.ID), zap.Error(err))
		}
		imported++
	}
	logger.Info("hierarchy imported", zap.Int("nodes", imported))
}

func upsertNode(ctx context.Context, conn *pgx.Conn, n *rawNode) error {
	var aliases *string
	if len(n.Aliases) > 0 {
		joined := ""
		for i, a := range n.Aliases {
			if i > 0 {
				joined += ","
			}
			joined += a
		}
		aliases = &joined
	}

	_, err := conn.Exec(ctx, `
		INSERT INTO loc_groups (id, level, name, search_name, aliases, parent_id, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			level       = EXCLUDED.level,
			name        = EXCLUDED.name,
			search_name = EXCLUDED.search_name,
			aliases     = EXCLUDED.aliases,
			parent_id   = EXCLUDED.parent_id,
			latitude    = EXCLUDED.latitude,
			longitude   = EXCLUDED.longitude`,
		n.ID, n.Level, n.Name, normalizer.Normalize(n.Name), aliases,
		n.ParentID, n.Latitude, n.Longitude)
	if err != nil {
		return fmt.Errorf("upsert loc_group %d: %w", n.ID, err)
	}
	return nil
}
