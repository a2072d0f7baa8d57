package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/location-matcher/app/models"
)

func TestFindMatchVariantScoreOrdering(t *testing.T) {
	idx := fixtureIndex(t, nil)
	tm := newTextMatcher()
	candidates := idx.Level(models.LevelNeighborhood)

	tests := []struct {
		name    string
		title   string
		wantID  int
		wantRaw float64
	}{
		{"exact normalized name", "Venta en Colonia San Benito", 205, 1.0},
		{"prefix-stripped name", "Venta en San Benito", 205, 0.95},
		{"alternate name", "Venta en Miralvalle", 206, 0.9},
	}

	var prevRaw = 2.0
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := tm.FindMatch(&models.ListingInput{Title: tt.title}, candidates)
			require.NotNil(t, hit)
			assert.Equal(t, tt.wantID, hit.Node.ID)
			assert.Equal(t, tt.wantRaw, hit.RawScore)
			assert.LessOrEqual(t, hit.RawScore, prevRaw)
			prevRaw = hit.RawScore
		})
	}
}

func TestFindMatchWordBoundaries(t *testing.T) {
	tm := newTextMatcher()
	node := &models.HierarchyNode{ID: 1, Level: models.LevelNeighborhood, NormalizedName: "alta"}

	// "alta" must not match inside "altavista"
	hit := tm.FindMatch(&models.ListingInput{Title: "residencial altavista"}, []*models.HierarchyNode{node})
	assert.Nil(t, hit)

	hit = tm.FindMatch(&models.ListingInput{Title: "zona alta norte"}, []*models.HierarchyNode{node})
	assert.NotNil(t, hit)
}

func TestFindMatchSourceTieBreak(t *testing.T) {
	idx := fixtureIndex(t, nil)
	tm := newTextMatcher()

	listing := &models.ListingInput{
		Title:           "Casa en Colonia San Benito",
		DescriptionText: "Hermosa casa en Colonia San Benito con jardín",
	}
	hit := tm.FindMatch(listing, idx.Level(models.LevelNeighborhood))
	require.NotNil(t, hit)
	assert.Equal(t, models.SourceTitle, hit.Source)
	assert.Equal(t, 205, hit.Node.ID)
}

func TestFindMatchHigherPrioritySourceBeatsLowerWithEqualName(t *testing.T) {
	idx := fixtureIndex(t, nil)
	tm := newTextMatcher()

	// Description has the exact name, title only the stripped form. The
	// adjusted scores are 1.0*0.75 vs 0.95*1.0; the title still wins.
	listing := &models.ListingInput{
		Title:           "Venta en San Benito",
		DescriptionText: "Colonia San Benito",
	}
	hit := tm.FindMatch(listing, idx.Level(models.LevelNeighborhood))
	require.NotNil(t, hit)
	assert.Equal(t, models.SourceTitle, hit.Source)
	assert.Equal(t, 0.95, hit.RawScore)
}

func TestFindMatchNoCandidates(t *testing.T) {
	tm := newTextMatcher()
	hit := tm.FindMatch(&models.ListingInput{Title: "Colonia San Benito"}, nil)
	assert.Nil(t, hit)
}

func TestContainsWord(t *testing.T) {
	tm := newTextMatcher()
	listing := &models.ListingInput{DetailsText: "Cerca de Antiguo Cuscatlán"}

	assert.True(t, tm.ContainsWord(listing, "antiguo cuscatlan"))
	assert.False(t, tm.ContainsWord(listing, "san salvador"))
	assert.False(t, tm.ContainsWord(listing, ""))
}
