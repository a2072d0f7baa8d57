package matcher

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/location-matcher/app/config"
	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/geo"
	"github.com/location-matcher/internal/hierarchy"
)

// CoordinateMatch is a geometric hit against the hierarchy.
type CoordinateMatch struct {
	Node       *models.HierarchyNode
	Score      float64
	DistanceKm float64
}

// Evidence renders a human-readable trace of the hit.
func (m *CoordinateMatch) Evidence() string {
	return fmt.Sprintf("%s (%.2f km)", m.Node.DisplayName, m.DistanceKm)
}

// CoordinateMatcher resolves listings by nearest-neighbor search over the
// neighborhood coordinates, falling back to municipality centroids.
type CoordinateMatcher struct {
	logger *zap.Logger
	index  *hierarchy.Index
	cfg    *config.MatcherCfg
}

func NewCoordinateMatcher(logger *zap.Logger, index *hierarchy.Index, cfg *config.MatcherCfg) *CoordinateMatcher {
	return &CoordinateMatcher{logger: logger, index: index, cfg: cfg}
}

// Match returns the best geometric hit for the point, or nil. Tier 1 picks
// the nearest level-2 node within the neighborhood radius; tier 2 falls back
// to the nearest municipality centroid within the wider radius.
func (m *CoordinateMatcher) Match(lat, lng float64) *CoordinateMatch {
	p := geo.Point{Lat: lat, Lng: lng}

	if hit := m.nearestNeighborhood(p); hit != nil {
		return hit
	}
	return m.nearestMunicipality(p)
}

func (m *CoordinateMatcher) nearestNeighborhood(p geo.Point) *CoordinateMatch {
	var best *models.HierarchyNode
	bestDist := math.MaxFloat64

	for _, n := range m.index.Level(models.LevelNeighborhood) {
		if !n.HasCoordinates() {
			continue
		}
		d := geo.DistanceKm(p, geo.Point{Lat: *n.Latitude, Lng: *n.Longitude})
		if d < bestDist {
			best, bestDist = n, d
		}
	}

	radius := m.cfg.NeighborhoodRadiusKm
	if best == nil || bestDist > radius {
		return nil
	}
	score := math.Max(0.5, 1-bestDist/radius)
	m.logger.Debug("coordinate match at neighborhood tier",
		zap.Int("nodeId", best.ID),
		zap.Float64("distanceKm", bestDist))
	return &CoordinateMatch{Node: best, Score: score, DistanceKm: bestDist}
}

func (m *CoordinateMatcher) nearestMunicipality(p geo.Point) *CoordinateMatch {
	var best *models.HierarchyNode
	bestDist := math.MaxFloat64

	for _, muni := range m.index.Level(models.LevelMunicipality) {
		center, ok := m.index.MunicipalityCentroid(muni.ID)
		if !ok {
			continue
		}
		d := geo.DistanceKm(p, center)
		if d < bestDist {
			best, bestDist = muni, d
		}
	}

	radius := m.cfg.MunicipalityRadiusKm
	if best == nil || bestDist > radius {
		return nil
	}
	score := math.Max(0.4, 0.9-bestDist/radius)
	m.logger.Debug("coordinate match at municipality tier",
		zap.Int("nodeId", best.ID),
		zap.Float64("distanceKm", bestDist))
	return &CoordinateMatch{Node: best, Score: score, DistanceKm: bestDist}
}
