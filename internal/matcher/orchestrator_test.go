package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/discovery"
	"github.com/location-matcher/internal/hierarchy"
)

type fakeInserter struct {
	inserted []*models.HierarchyNode
}

func (f *fakeInserter) InsertLevel2(_ context.Context, node *models.HierarchyNode) error {
	f.inserted = append(f.inserted, node)
	return nil
}

type fakeStaging struct {
	staged []*models.StagingRecord
}

func (f *fakeStaging) StageCandidate(_ context.Context, rec *models.StagingRecord) error {
	f.staged = append(f.staged, rec)
	return nil
}

type orchestratorFixture struct {
	orch     *Orchestrator
	index    *hierarchy.Index
	inserter *fakeInserter
	staging  *fakeStaging
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	logger := zap.NewNop()
	cfg := fixtureCfg()
	inserter := &fakeInserter{}
	staging := &fakeStaging{}
	idx := hierarchy.NewIndex(logger, fixtureNodes(), inserter)
	text := NewTextPatternMatcher(logger, cfg)
	orch := NewOrchestrator(logger, idx,
		NewCoordinateMatcher(logger, idx, cfg),
		text,
		NewDepartmentDisambiguator(logger, idx, text),
		discovery.New(logger, idx, cfg, staging))
	return &orchestratorFixture{orch: orch, index: idx, inserter: inserter, staging: staging}
}

func assertAncestry(t *testing.T, a models.Ancestry, l2, l3, l4, l5 int) {
	t.Helper()
	check := func(want int, got *int) {
		if want == 0 {
			assert.Nil(t, got)
			return
		}
		require.NotNil(t, got)
		assert.Equal(t, want, *got)
	}
	check(l2, a.Level2ID)
	check(l3, a.Level3ID)
	check(l4, a.Level4ID)
	check(l5, a.Level5ID)
}

func TestOrchestratorExactCoordinates(t *testing.T) {
	f := newOrchestratorFixture(t)

	r := f.orch.Match(context.Background(), &models.ListingInput{
		ExternalID: 1,
		Title:      "Casa en venta",
		Latitude:   floatPtr(13.6969),
		Longitude:  floatPtr(-89.2341),
	})

	require.NotNil(t, r.MatchedLevel)
	assert.Equal(t, models.LevelNeighborhood, *r.MatchedLevel)
	assert.Equal(t, 1.0, *r.MatchScore)
	assert.Equal(t, models.SourceCoordinates, r.MatchSource)
	assertAncestry(t, r.Ancestry, 205, 305, 405, 505)
}

func TestOrchestratorMunicipalityByTitle(t *testing.T) {
	f := newOrchestratorFixture(t)

	r := f.orch.Match(context.Background(), &models.ListingInput{
		ExternalID: 2,
		Title:      "Casa en venta, Antiguo Cuscatlán",
	})

	require.NotNil(t, r.MatchedLevel)
	assert.Equal(t, models.LevelMunicipality, *r.MatchedLevel)
	assert.Equal(t, models.SourceTitle, r.MatchSource)
	assertAncestry(t, r.Ancestry, 0, 306, 406, 506)
}

func TestOrchestratorNeighborhoodUnderMunicipality(t *testing.T) {
	f := newOrchestratorFixture(t)

	r := f.orch.Match(context.Background(), &models.ListingInput{
		ExternalID:      3,
		Title:           "Venta de casa en San Salvador",
		DescriptionText: "Preciosa casa en Colonia San Benito",
	})

	require.NotNil(t, r.MatchedLevel)
	assert.Equal(t, models.LevelNeighborhood, *r.MatchedLevel)
	assert.Equal(t, models.SourceDescription, r.MatchSource)
	assertAncestry(t, r.Ancestry, 205, 305, 405, 505)
}

func TestOrchestratorDepartmentOnly(t *testing.T) {
	f := newOrchestratorFixture(t)

	r := f.orch.Match(context.Background(), &models.ListingInput{
		ExternalID: 4,
		Title:      "Terreno en Cuscatlán",
	})

	require.NotNil(t, r.MatchedLevel)
	assert.Equal(t, models.LevelDepartment, *r.MatchedLevel)
	assertAncestry(t, r.Ancestry, 0, 0, 0, 506)
}

func TestOrchestratorDepartmentWithDistrictDescendant(t *testing.T) {
	f := newOrchestratorFixture(t)

	r := f.orch.Match(context.Background(), &models.ListingInput{
		ExternalID:  5,
		Title:       "Lote en Cuscatlán",
		DetailsText: "Zona Cojutepeque Norte",
	})

	require.NotNil(t, r.MatchedLevel)
	assert.Equal(t, models.LevelDistrict, *r.MatchedLevel)
	assertAncestry(t, r.Ancestry, 0, 0, 406, 506)
}

func TestOrchestratorGlobalNeighborhoodLastResort(t *testing.T) {
	f := newOrchestratorFixture(t)

	r := f.orch.Match(context.Background(), &models.ListingInput{
		ExternalID: 6,
		Title:      "Apartamento en Colonia Escalón",
	})

	require.NotNil(t, r.MatchedLevel)
	assert.Equal(t, models.LevelNeighborhood, *r.MatchedLevel)
	assertAncestry(t, r.Ancestry, 206, 305, 405, 505)
}

func TestOrchestratorNoSignal(t *testing.T) {
	f := newOrchestratorFixture(t)

	r := f.orch.Match(context.Background(), &models.ListingInput{
		ExternalID: 7,
		Title:      "Oportunidad de inversión",
	})

	assert.False(t, r.IsMatched())
	assert.Nil(t, r.MatchScore)
	assertAncestry(t, r.Ancestry, 0, 0, 0, 0)
	assert.Empty(t, f.inserter.inserted)
}

func TestOrchestratorCoordinateDiscoveryUpgrade(t *testing.T) {
	f := newOrchestratorFixture(t)

	listing := &models.ListingInput{
		ExternalID: 8,
		Title:      "Residencial Los Almendros, casa de 3 habitaciones",
		Latitude:   floatPtr(13.7500),
		Longitude:  floatPtr(-89.1500),
	}

	r := f.orch.Match(context.Background(), listing)

	require.NotNil(t, r.MatchedLevel)
	assert.Equal(t, models.LevelNeighborhood, *r.MatchedLevel)
	assert.Equal(t, models.SourceCoordAutoDiscover, r.MatchSource)
	require.Len(t, f.inserter.inserted, 1)
	created := f.inserter.inserted[0]
	assert.Equal(t, 207, created.ID)
	assert.Equal(t, "Residencial los Almendros", created.DisplayName)
	assertAncestry(t, r.Ancestry, 207, 305, 405, 505)

	// Same listing again: the node now exists with these exact
	// coordinates, so tier 1 takes it directly and nothing is inserted.
	r2 := f.orch.Match(context.Background(), listing)
	require.NotNil(t, r2.MatchedLevel)
	assert.Equal(t, models.LevelNeighborhood, *r2.MatchedLevel)
	assertAncestry(t, r2.Ancestry, 207, 305, 405, 505)
	assert.Len(t, f.inserter.inserted, 1)
}

func TestOrchestratorTextDiscoveryUpgrade(t *testing.T) {
	f := newOrchestratorFixture(t)

	r := f.orch.Match(context.Background(), &models.ListingInput{
		ExternalID: 9,
		Title:      "Residencial Los Almendros San Salvador",
		Latitude:   floatPtr(14.5000),
		Longitude:  floatPtr(-88.0000),
	})

	require.NotNil(t, r.MatchedLevel)
	assert.Equal(t, models.LevelNeighborhood, *r.MatchedLevel)
	assert.Equal(t, models.SourceTextAutoDiscover, r.MatchSource)
	require.Len(t, f.inserter.inserted, 1)
	assert.Equal(t, "Residencial los Almendros", f.inserter.inserted[0].DisplayName)
}
