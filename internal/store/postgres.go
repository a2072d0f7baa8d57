package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/hierarchy"
	"github.com/location-matcher/internal/normalizer"
)

// loadPageSize is the page size for bulk hierarchy reads.
const loadPageSize = 1000

// PostgresStore is the relational backend: hierarchy nodes, listings and
// match results.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresStore(ctx context.Context, url string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// LoadHierarchy reads all nodes of all four levels in id-ordered pages.
// Name variants are derived here so the index never sees raw names.
func (s *PostgresStore) LoadHierarchy(ctx context.Context) ([]*models.HierarchyNode, error) {
	var nodes []*models.HierarchyNode
	for _, level := range []int{
		models.LevelNeighborhood, models.LevelMunicipality,
		models.LevelDistrict, models.LevelDepartment,
	} {
		levelNodes, err := s.loadLevel(ctx, level)
		if err != nil {
			return nil, fmt.Errorf("load hierarchy level %d: %w", level, err)
		}
		nodes = append(nodes, levelNodes...)
	}
	return nodes, nil
}

func (s *PostgresStore) loadLevel(ctx context.Context, level int) ([]*models.HierarchyNode, error) {
	var nodes []*models.HierarchyNode
	lastID := 0
	for {
		rows, err := s.pool.Query(ctx, `
			SELECT id, name, search_name, aliases, parent_id, latitude, longitude
			FROM loc_groups
			WHERE level = $1 AND id > $2
			ORDER BY id
			LIMIT $3`, level, lastID, loadPageSize)
		if err != nil {
			return nil, err
		}

		page, err := scanNodes(rows, level)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, page...)
		if len(page) < loadPageSize {
			return nodes, nil
		}
		lastID = page[len(page)-1].ID
	}
}

func scanNodes(rows pgx.Rows, level int) ([]*models.HierarchyNode, error) {
	defer rows.Close()

	var nodes []*models.HierarchyNode
	for rows.Next() {
		var (
			n          models.HierarchyNode
			searchName *string
			aliases    *string
		)
		if err := rows.Scan(&n.ID, &n.DisplayName, &searchName, &aliases,
			&n.ParentID, &n.Latitude, &n.Longitude); err != nil {
			return nil, err
		}
		n.Level = level

		if searchName != nil && *searchName != "" {
			n.NormalizedName = normalizer.Normalize(*searchName)
		} else {
			n.NormalizedName = normalizer.Normalize(n.DisplayName)
		}
		n.PrefixStrippedName = normalizer.StripPrefixes(n.NormalizedName)
		if aliases != nil {
			for _, alias := range strings.Split(*aliases, ",") {
				if a := normalizer.Normalize(alias); a != "" && a != n.NormalizedName {
					n.AlternateNames = append(n.AlternateNames, a)
				}
			}
		}
		nodes = append(nodes, &n)
	}
	return nodes, rows.Err()
}

// InsertLevel2 writes a new neighborhood row. A duplicate primary key maps to
// hierarchy.ErrInsertConflict so the index can retry with the next id.
func (s *PostgresStore) InsertLevel2(ctx context.Context, node *models.HierarchyNode) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO loc_groups (id, level, name, search_name, parent_id, latitude, longitude, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'auto-discovered')`,
		node.ID, node.Level, node.DisplayName, node.NormalizedName,
		node.ParentID, node.Latitude, node.Longitude)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("id %d: %w", node.ID, hierarchy.ErrInsertConflict)
		}
		return fmt.Errorf("insert loc_group: %w", err)
	}
	return nil
}

// ListingFilter selects which listings a batch run processes.
type ListingFilter struct {
	OnlyUnprocessed bool // skip listings that already have a match row
	Limit           int  // 0 means no limit
}

// ListListings streams listings into fn, page by page. The location column
// may hold either plain text or a JSON object from the scraper; JSON objects
// are flattened to one search string.
func (s *PostgresStore) ListListings(ctx context.Context, filter ListingFilter, fn func(*models.ListingInput) error) error {
	query := `
		SELECT l.external_id, l.title, l.location, l.details, l.description, l.latitude, l.longitude
		FROM listings l`
	if filter.OnlyUnprocessed {
		query += `
		LEFT JOIN listing_matches m ON m.external_id = l.external_id
		WHERE m.external_id IS NULL`
	}
	query += `
		ORDER BY l.external_id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l                          models.ListingInput
			title, loc, details, descr *string
		)
		if err := rows.Scan(&l.ExternalID, &title, &loc, &details, &descr,
			&l.Latitude, &l.Longitude); err != nil {
			return fmt.Errorf("scan listing: %w", err)
		}
		l.Title = deref(title)
		l.LocationText = FlattenLocation(deref(loc))
		l.DetailsText = deref(details)
		l.DescriptionText = deref(descr)

		if err := fn(&l); err != nil {
			return err
		}
	}
	return rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FlattenLocation turns a scraper location payload into plain text. JSON
// objects become their values joined by commas in key order; anything else
// passes through untouched.
func FlattenLocation(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return raw
	}
	var obj map[string]string
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return raw
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := strings.TrimSpace(obj[k]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// SaveMatchResults upserts one batch of match results keyed by external id.
func (s *PostgresStore) SaveMatchResults(ctx context.Context, results []*models.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(`
			INSERT INTO listing_matches
				(external_id, loc_group2_id, loc_group3_id, loc_group4_id, loc_group5_id,
				 match_level, match_score, match_source, matched_text, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (external_id) DO UPDATE SET
				loc_group2_id = EXCLUDED.loc_group2_id,
				loc_group3_id = EXCLUDED.loc_group3_id,
				loc_group4_id = EXCLUDED.loc_group4_id,
				loc_group5_id = EXCLUDED.loc_group5_id,
				match_level   = EXCLUDED.match_level,
				match_score   = EXCLUDED.match_score,
				match_source  = EXCLUDED.match_source,
				matched_text  = EXCLUDED.matched_text,
				updated_at    = now()`,
			r.ExternalID, r.Level2ID, r.Level3ID, r.Level4ID, r.Level5ID,
			r.MatchedLevel, r.MatchScore, nullable(r.MatchSource), nullable(r.MatchedText))
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range results {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save match results: %w", err)
		}
	}
	s.logger.Debug("match results saved", zap.Int("count", len(results)))
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
