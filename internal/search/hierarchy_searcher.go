package search

import (
	"fmt"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
)

const indexName = "hierarchy_nodes"

// HierarchySearcher exposes fuzzy hierarchy-node lookup for the curation API
// on top of Meilisearch. The matching engine itself never uses it; reviewers
// do, to find where a staged candidate belongs.
type HierarchySearcher struct {
	client meilisearch.ServiceManager
	logger *zap.Logger
}

func NewHierarchySearcher(host, apiKey string, logger *zap.Logger) *HierarchySearcher {
	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	return &HierarchySearcher{client: client, logger: logger}
}

// nodeDocument is the indexed shape of a hierarchy node.
type nodeDocument struct {
	ID             int      `json:"id"`
	Level          int      `json:"level"`
	Name           string   `json:"name"`
	NormalizedName string   `json:"normalized_name"`
	AlternateNames []string `json:"alternate_names,omitempty"`
	ParentID       *int     `json:"parent_id,omitempty"`
}

// SeedIndex replaces the index contents with the given nodes and configures
// filtering on level and parent id.
func (hs *HierarchySearcher) SeedIndex(nodes []*models.HierarchyNode) error {
	index := hs.client.Index(indexName)

	if _, err := index.UpdateFilterableAttributes(&[]string{"level", "parent_id"}); err != nil {
		return fmt.Errorf("configure filterable attributes: %w", err)
	}
	if _, err := index.UpdateSearchableAttributes(&[]string{"name", "normalized_name", "alternate_names"}); err != nil {
		return fmt.Errorf("configure searchable attributes: %w", err)
	}

	docs := make([]nodeDocument, 0, len(nodes))
	for _, n := range nodes {
		docs = append(docs, nodeDocument{
			ID:             n.ID,
			Level:          n.Level,
			Name:           n.DisplayName,
			NormalizedName: n.NormalizedName,
			AlternateNames: n.AlternateNames,
			ParentID:       n.ParentID,
		})
	}

	const chunkSize = 1000
	for start := 0; start < len(docs); start += chunkSize {
		end := start + chunkSize
		if end > len(docs) {
			end = len(docs)
		}
		if _, err := index.AddDocuments(docs[start:end]); err != nil {
			return fmt.Errorf("seed hierarchy index: %w", err)
		}
	}
	hs.logger.Info("hierarchy search index seeded", zap.Int("documents", len(docs)))
	return nil
}

// Search returns nodes matching the query, optionally restricted to one
// level (0 means all levels).
func (hs *HierarchySearcher) Search(query string, level int, limit int64) ([]*models.HierarchyNode, error) {
	req := &meilisearch.SearchRequest{Limit: limit}
	if level != 0 {
		req.Filter = fmt.Sprintf("level = %d", level)
	}

	result, err := hs.client.Index(indexName).Search(query, req)
	if err != nil {
		return nil, fmt.Errorf("hierarchy search: %w", err)
	}
	return parseHits(result), nil
}

func parseHits(result *meilisearch.SearchResponse) []*models.HierarchyNode {
	var nodes []*models.HierarchyNode
	for _, hit := range result.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		n := &models.HierarchyNode{}
		if id, ok := hitMap["id"].(float64); ok {
			n.ID = int(id)
		}
		if level, ok := hitMap["level"].(float64); ok {
			n.Level = int(level)
		}
		if name, ok := hitMap["name"].(string); ok {
			n.DisplayName = name
		}
		if normalized, ok := hitMap["normalized_name"].(string); ok {
			n.NormalizedName = normalized
		}
		if parentID, ok := hitMap["parent_id"].(float64); ok {
			p := int(parentID)
			n.ParentID = &p
		}
		if aliasesRaw, ok := hitMap["alternate_names"].([]interface{}); ok {
			for _, alias := range aliasesRaw {
				if s, ok := alias.(string); ok {
					n.AlternateNames = append(n.AlternateNames, s)
				}
			}
		}
		nodes = append(nodes, n)
	}
	return nodes
}
