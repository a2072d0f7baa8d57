package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/location-matcher/app/config"
	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/hierarchy"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

type fakeInserter struct {
	failWith error
	inserted []*models.HierarchyNode
}

func (f *fakeInserter) InsertLevel2(_ context.Context, node *models.HierarchyNode) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.inserted = append(f.inserted, node)
	return nil
}

type fakeStaging struct {
	failWith error
	staged   []*models.StagingRecord
}

func (f *fakeStaging) StageCandidate(_ context.Context, rec *models.StagingRecord) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.staged = append(f.staged, rec)
	return nil
}

func fixtureNodes() []*models.HierarchyNode {
	return []*models.HierarchyNode{
		{ID: 505, Level: models.LevelDepartment, DisplayName: "San Salvador", NormalizedName: "san salvador"},
		{ID: 405, Level: models.LevelDistrict, DisplayName: "San Salvador Centro", NormalizedName: "san salvador centro", ParentID: intPtr(505)},
		{ID: 305, Level: models.LevelMunicipality, DisplayName: "Apopa", NormalizedName: "apopa", ParentID: intPtr(405)},
		{ID: 205, Level: models.LevelNeighborhood, DisplayName: "Colonia Las Flores", NormalizedName: "colonia las flores", PrefixStrippedName: "flores", ParentID: intPtr(305), Latitude: floatPtr(13.8000), Longitude: floatPtr(-89.1800)},
	}
}

func newFixture(t *testing.T, inserter hierarchy.Level2Inserter, staging StagingWriter) *Discovery {
	t.Helper()
	cfg := config.C
	idx := hierarchy.NewIndex(zap.NewNop(), fixtureNodes(), inserter)
	return New(zap.NewNop(), idx, &cfg, staging)
}

func TestExtract(t *testing.T) {
	d := newFixture(t, nil, nil)

	tests := []struct {
		name       string
		listing    models.ListingInput
		want       string // expected display name, "" for no candidate
		wantSource string
	}{
		{
			name:       "lead word then stop word",
			listing:    models.ListingInput{Title: "Residencial Los Almendros, casa de 3 habitaciones"},
			want:       "Residencial los Almendros",
			wantSource: models.SourceTitle,
		},
		{
			name:       "abbreviation expands",
			listing:    models.ListingInput{LocationText: "Res. Villa Esperanza, Apopa"},
			want:       "Residencial Villa Esperanza",
			wantSource: models.SourceLocation,
		},
		{
			name:       "upper level name stripped by forward scan",
			listing:    models.ListingInput{Title: "Colonia Buena Vista San Salvador"},
			want:       "Colonia Buena Vista",
			wantSource: models.SourceTitle,
		},
		{
			name:       "trailing municipality stripped",
			listing:    models.ListingInput{Title: "Barrio Santa Lucia Apopa"},
			want:       "Barrio Santa Lucia",
			wantSource: models.SourceTitle,
		},
		{
			name:       "short trailing municipality stripped by backward scan",
			listing:    models.ListingInput{Title: "Colonia Milagro Apopa"},
			want:       "Colonia Milagro",
			wantSource: models.SourceTitle,
		},
		{
			name:       "bare number ends collection",
			listing:    models.ListingInput{Title: "Urbanización Cumbres 2 etapa"},
			want:       "Urbanizacion Cumbres",
			wantSource: models.SourceTitle,
		},
		{
			name:    "too short after cleanup",
			listing: models.ListingInput{Title: "Colonia El"},
			want:    "",
		},
		{
			name:    "generic adjectives rejected",
			listing: models.ListingInput{Title: "Residencial privada con seguridad"},
			want:    "",
		},
		{
			name:    "no lead word",
			listing: models.ListingInput{Title: "Casa en venta con piscina"},
			want:    "",
		},
		{
			name:       "description is low confidence",
			listing:    models.ListingInput{DescriptionText: "Ubicada en Reparto Los Pinos cerca del centro"},
			want:       "Reparto los Pinos",
			wantSource: models.SourceDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := d.Extract(&tt.listing)
			if tt.want == "" {
				assert.Nil(t, c)
				return
			}
			require.NotNil(t, c)
			assert.Equal(t, tt.want, c.DisplayName)
			assert.Equal(t, tt.wantSource, c.SourceField)
		})
	}
}

func TestExtractWordCap(t *testing.T) {
	d := newFixture(t, nil, nil)

	c := d.Extract(&models.ListingInput{
		Title: "Colonia Jardines de la Provincia Central Extendida Grande",
	})
	require.NotNil(t, c)
	// Capped at five collected words
	assert.Equal(t, "colonia jardines de la provincia central", c.NormalizedName)
}

func TestRegisterInsertsHighConfidence(t *testing.T) {
	ins := &fakeInserter{}
	d := newFixture(t, ins, nil)
	listing := &models.ListingInput{ExternalID: 11, Title: "Residencial Los Almendros, casa nueva",
		Latitude: floatPtr(13.8300), Longitude: floatPtr(-89.2100)}

	c := d.Extract(listing)
	require.NotNil(t, c)
	node, err := d.Register(context.Background(), listing, c, 305)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, 206, node.ID)
	assert.Len(t, ins.inserted, 1)
}

func TestRegisterIdempotent(t *testing.T) {
	ins := &fakeInserter{}
	d := newFixture(t, ins, nil)
	listing := &models.ListingInput{ExternalID: 12, Title: "Residencial Los Almendros",
		Latitude: floatPtr(13.8300), Longitude: floatPtr(-89.2100)}

	c := d.Extract(listing)
	require.NotNil(t, c)

	first, err := d.Register(context.Background(), listing, c, 305)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := d.Register(context.Background(), listing, c, 305)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, ins.inserted, 1)
}

func TestRegisterConcurrentSameCandidate(t *testing.T) {
	ins := &fakeInserter{}
	d := newFixture(t, ins, nil)
	listing := &models.ListingInput{ExternalID: 17, Title: "Residencial Los Almendros",
		Latitude: floatPtr(13.8300), Longitude: floatPtr(-89.2100)}

	c := d.Extract(listing)
	require.NotNil(t, c)

	// Several workers race on the same unseen neighborhood; the insert lock
	// must let exactly one of them create it.
	const workers = 8
	nodes := make([]*models.HierarchyNode, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			node, err := d.Register(context.Background(), listing, c, 305)
			assert.NoError(t, err)
			nodes[i] = node
		}(i)
	}
	wg.Wait()

	require.Len(t, ins.inserted, 1)
	for _, n := range nodes {
		require.NotNil(t, n)
		assert.Equal(t, ins.inserted[0].ID, n.ID)
	}
}

func TestRegisterDedupByProximity(t *testing.T) {
	ins := &fakeInserter{}
	d := newFixture(t, ins, nil)
	// Different name, 200 m from Colonia Las Flores
	listing := &models.ListingInput{ExternalID: 13, Title: "Residencial Mirador del Valle",
		Latitude: floatPtr(13.8015), Longitude: floatPtr(-89.1810)}

	c := d.Extract(listing)
	require.NotNil(t, c)
	node, err := d.Register(context.Background(), listing, c, 305)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, 205, node.ID)
	assert.Empty(t, ins.inserted)
}

func TestRegisterStagesLowConfidence(t *testing.T) {
	ins := &fakeInserter{}
	st := &fakeStaging{}
	d := newFixture(t, ins, st)
	listing := &models.ListingInput{ExternalID: 14,
		DescriptionText: "Bonita casa en Reparto Los Pinos con cochera"}

	c := d.Extract(listing)
	require.NotNil(t, c)
	node, err := d.Register(context.Background(), listing, c, 305)
	require.NoError(t, err)
	assert.Nil(t, node)
	assert.Empty(t, ins.inserted)
	require.Len(t, st.staged, 1)

	rec := st.staged[0]
	assert.Equal(t, int64(14), rec.ExternalListingID)
	assert.Equal(t, "Reparto los Pinos", rec.CandidateDisplayName)
	assert.Equal(t, models.SourceDescription, rec.SourceField)
	assert.Equal(t, models.StagingStatusPending, rec.Status)
	// Similarity hint against the existing neighborhood under Apopa
	assert.Equal(t, "Colonia Las Flores", rec.NearestExistingName)
	assert.Greater(t, rec.NameSimilarity, 0.0)
}

func TestRegisterDegradesToStagingOnInsertConflict(t *testing.T) {
	ins := &fakeInserter{failWith: fmt.Errorf("duplicate key: %w", hierarchy.ErrInsertConflict)}
	st := &fakeStaging{}
	d := newFixture(t, ins, st)
	listing := &models.ListingInput{ExternalID: 15, Title: "Residencial Los Almendros"}

	c := d.Extract(listing)
	require.NotNil(t, c)
	node, err := d.Register(context.Background(), listing, c, 305)
	require.NoError(t, err)
	assert.Nil(t, node)
	assert.Len(t, st.staged, 1)
}

func TestRegisterStagingFailureIsNonFatal(t *testing.T) {
	st := &fakeStaging{failWith: errors.New("queue down")}
	d := newFixture(t, &fakeInserter{}, st)
	listing := &models.ListingInput{ExternalID: 16,
		DescriptionText: "Reparto Los Pinos zona tranquila"}

	c := d.Extract(listing)
	require.NotNil(t, c)
	node, err := d.Register(context.Background(), listing, c, 305)
	require.NoError(t, err)
	assert.Nil(t, node)
}
