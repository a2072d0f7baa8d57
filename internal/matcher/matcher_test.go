package matcher

import (
	"testing"

	"go.uber.org/zap"

	"github.com/location-matcher/app/config"
	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/hierarchy"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// fixtureNodes builds a small San Salvador / Cuscatlán hierarchy.
func fixtureNodes() []*models.HierarchyNode {
	return []*models.HierarchyNode{
		{ID: 505, Level: models.LevelDepartment, DisplayName: "San Salvador", NormalizedName: "san salvador"},
		{ID: 506, Level: models.LevelDepartment, DisplayName: "Cuscatlán", NormalizedName: "cuscatlan"},
		{ID: 405, Level: models.LevelDistrict, DisplayName: "San Salvador Centro", NormalizedName: "san salvador centro", ParentID: intPtr(505)},
		{ID: 406, Level: models.LevelDistrict, DisplayName: "Cojutepeque Norte", NormalizedName: "cojutepeque norte", ParentID: intPtr(506)},
		{ID: 305, Level: models.LevelMunicipality, DisplayName: "San Salvador", NormalizedName: "san salvador", ParentID: intPtr(405)},
		{ID: 306, Level: models.LevelMunicipality, DisplayName: "Antiguo Cuscatlán", NormalizedName: "antiguo cuscatlan", ParentID: intPtr(406)},
		{ID: 205, Level: models.LevelNeighborhood, DisplayName: "Colonia San Benito", NormalizedName: "colonia san benito", PrefixStrippedName: "san benito", ParentID: intPtr(305), Latitude: floatPtr(13.6969), Longitude: floatPtr(-89.2341)},
		{ID: 206, Level: models.LevelNeighborhood, DisplayName: "Colonia Escalón", NormalizedName: "colonia escalon", PrefixStrippedName: "escalon", AlternateNames: []string{"miralvalle"}, ParentID: intPtr(305), Latitude: floatPtr(13.7034), Longitude: floatPtr(-89.2406)},
	}
}

func fixtureIndex(t *testing.T, inserter hierarchy.Level2Inserter) *hierarchy.Index {
	t.Helper()
	return hierarchy.NewIndex(zap.NewNop(), fixtureNodes(), inserter)
}

func fixtureCfg() *config.MatcherCfg {
	cfg := config.C
	return &cfg
}

func newTextMatcher() *TextPatternMatcher {
	return NewTextPatternMatcher(zap.NewNop(), fixtureCfg())
}
