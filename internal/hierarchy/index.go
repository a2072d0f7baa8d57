package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/geo"
)

// ErrInsertConflict is returned by a Level2Inserter when the chosen id is
// already taken, and by InsertLevel2 after the retry budget is exhausted.
var ErrInsertConflict = errors.New("hierarchy: level-2 id already taken")

// maxInsertAttempts bounds id-conflict retries on level-2 inserts.
const maxInsertAttempts = 3

// Level2Inserter persists a new level-2 node. Implementations must return an
// error wrapping ErrInsertConflict when the id collides with a concurrent
// writer.
type Level2Inserter interface {
	InsertLevel2(ctx context.Context, node *models.HierarchyNode) error
}

// Index holds the full location hierarchy for one run. Levels 3-5 are
// immutable after load; the level-2 set can grow concurrently through
// neighborhood discovery, so it is guarded separately.
type Index struct {
	logger *zap.Logger

	byID    map[int]*models.HierarchyNode
	level3  []*models.HierarchyNode
	level4  []*models.HierarchyNode
	level5  []*models.HierarchyNode
	level2  []*models.HierarchyNode
	mu      sync.RWMutex // guards level2, byID entries for level 2, maxL2ID
	maxL2ID int

	insertMu sync.Mutex // serializes duplicate-check + insert
	inserter Level2Inserter
}

// NewIndex builds an index from the loaded nodes. The inserter may be nil for
// read-only use (dry runs, tests).
func NewIndex(logger *zap.Logger, nodes []*models.HierarchyNode, inserter Level2Inserter) *Index {
	idx := &Index{
		logger:   logger,
		byID:     make(map[int]*models.HierarchyNode, len(nodes)),
		inserter: inserter,
	}
	for _, n := range nodes {
		idx.byID[n.ID] = n
		switch n.Level {
		case models.LevelNeighborhood:
			idx.level2 = append(idx.level2, n)
			if n.ID > idx.maxL2ID {
				idx.maxL2ID = n.ID
			}
		case models.LevelMunicipality:
			idx.level3 = append(idx.level3, n)
		case models.LevelDistrict:
			idx.level4 = append(idx.level4, n)
		case models.LevelDepartment:
			idx.level5 = append(idx.level5, n)
		}
	}
	logger.Info("hierarchy index loaded",
		zap.Int("level2", len(idx.level2)),
		zap.Int("level3", len(idx.level3)),
		zap.Int("level4", len(idx.level4)),
		zap.Int("level5", len(idx.level5)))
	return idx
}

// ByID returns the node with the given id, or nil.
func (idx *Index) ByID(id int) *models.HierarchyNode {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.byID[id]
}

// Level returns the nodes at the given level. Level-2 reads take a snapshot
// so callers can iterate while discovery inserts.
func (idx *Index) Level(level int) []*models.HierarchyNode {
	switch level {
	case models.LevelMunicipality:
		return idx.level3
	case models.LevelDistrict:
		return idx.level4
	case models.LevelDepartment:
		return idx.level5
	case models.LevelNeighborhood:
		idx.mu.RLock()
		defer idx.mu.RUnlock()
		snapshot := make([]*models.HierarchyNode, len(idx.level2))
		copy(snapshot, idx.level2)
		return snapshot
	}
	return nil
}

// ChildrenOf returns the level-children of the given parent id.
func (idx *Index) ChildrenOf(parentID, level int) []*models.HierarchyNode {
	var children []*models.HierarchyNode
	for _, n := range idx.Level(level) {
		if n.ParentID != nil && *n.ParentID == parentID {
			children = append(children, n)
		}
	}
	return children
}

// AncestryOf resolves the full parent chain of a node up to the department.
// A broken parent pointer stops the walk; the levels resolved so far are kept.
func (idx *Index) AncestryOf(node *models.HierarchyNode) models.Ancestry {
	var a models.Ancestry
	for node != nil {
		a.SetIDAt(node.Level, node.ID)
		if node.ParentID == nil {
			break
		}
		parent := idx.ByID(*node.ParentID)
		if parent == nil {
			idx.logger.Warn("broken parent pointer in hierarchy",
				zap.Int("nodeId", node.ID),
				zap.Int("parentId", *node.ParentID))
			break
		}
		node = parent
	}
	return a
}

// MunicipalityCentroid computes the mean coordinate of a municipality's
// level-2 children that carry coordinates. ok is false when none do.
func (idx *Index) MunicipalityCentroid(muniID int) (geo.Point, bool) {
	var points []geo.Point
	for _, n := range idx.Level(models.LevelNeighborhood) {
		if n.ParentID != nil && *n.ParentID == muniID && n.HasCoordinates() {
			points = append(points, geo.Point{Lat: *n.Latitude, Lng: *n.Longitude})
		}
	}
	return geo.Centroid(points)
}

// FindLevel2Duplicate returns an existing level-2 node under the same
// municipality that is the same place as the candidate: any cross match
// between normalized and prefix-stripped names, or coordinates within
// radiusKm.
func (idx *Index) FindLevel2Duplicate(parentID int, normalized, prefixStripped string, lat, lng *float64, radiusKm float64) *models.HierarchyNode {
	for _, n := range idx.Level(models.LevelNeighborhood) {
		if n.ParentID == nil || *n.ParentID != parentID {
			continue
		}
		if sameName(n, normalized, prefixStripped) {
			return n
		}
		if lat != nil && lng != nil && n.HasCoordinates() {
			d := geo.DistanceKm(
				geo.Point{Lat: *lat, Lng: *lng},
				geo.Point{Lat: *n.Latitude, Lng: *n.Longitude})
			if d <= radiusKm {
				return n
			}
		}
	}
	return nil
}

func sameName(n *models.HierarchyNode, normalized, prefixStripped string) bool {
	if normalized == "" {
		return false
	}
	return n.NormalizedName == normalized ||
		n.NormalizedName == prefixStripped ||
		n.PrefixStrippedName == normalized ||
		(n.PrefixStrippedName != "" && n.PrefixStrippedName == prefixStripped)
}

// InsertLevel2 persists and registers a new level-2 node under the given
// municipality. The id is allocated as max existing level-2 id plus one; an
// id conflict from a concurrent writer is retried with the next id up to
// maxInsertAttempts times.
//
// Callers that need atomic dedup-check + insert must wrap both in
// WithInsertLock.
func (idx *Index) InsertLevel2(ctx context.Context, displayName, normalized, prefixStripped string, lat, lng *float64, parentID int) (*models.HierarchyNode, error) {
	if idx.inserter == nil {
		return nil, fmt.Errorf("hierarchy: index is read-only")
	}

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		idx.mu.RLock()
		id := idx.maxL2ID + 1 + attempt
		idx.mu.RUnlock()

		node := &models.HierarchyNode{
			ID:                 id,
			Level:              models.LevelNeighborhood,
			DisplayName:        displayName,
			NormalizedName:     normalized,
			PrefixStrippedName: prefixStripped,
			ParentID:           &parentID,
			Latitude:           lat,
			Longitude:          lng,
		}

		err := idx.inserter.InsertLevel2(ctx, node)
		if errors.Is(err, ErrInsertConflict) {
			idx.logger.Warn("level-2 id conflict, retrying",
				zap.Int("id", id),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert level-2 node %q: %w", displayName, err)
		}

		idx.mu.Lock()
		idx.level2 = append(idx.level2, node)
		idx.byID[node.ID] = node
		if node.ID > idx.maxL2ID {
			idx.maxL2ID = node.ID
		}
		idx.mu.Unlock()

		idx.logger.Info("auto-discovered neighborhood inserted",
			zap.Int("id", node.ID),
			zap.String("name", displayName),
			zap.Int("municipalityId", parentID))
		return node, nil
	}
	return nil, fmt.Errorf("insert level-2 node %q: %w", displayName, ErrInsertConflict)
}

// WithInsertLock runs fn while holding the insert lock, making a duplicate
// check and the subsequent insert atomic with respect to other discoveries.
func (idx *Index) WithInsertLock(fn func() error) error {
	idx.insertMu.Lock()
	defer idx.insertMu.Unlock()
	return fn()
}
