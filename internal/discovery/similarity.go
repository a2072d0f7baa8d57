package discovery

import (
	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"

	"github.com/location-matcher/app/models"
)

// annotateSimilarity records the closest existing neighborhood name under the
// same municipality on a staging record, as a hint for the reviewer. The
// score blends Jaro-Winkler with a normalized Levenshtein ratio.
func (d *Discovery) annotateSimilarity(rec *models.StagingRecord, municipalityID int) {
	var bestName string
	var bestScore float64

	for _, n := range d.index.ChildrenOf(municipalityID, models.LevelNeighborhood) {
		score := nameSimilarity(rec.CandidateNormalizedName, n.NormalizedName)
		if score > bestScore {
			bestScore, bestName = score, n.DisplayName
		}
	}
	if bestName != "" {
		rec.NearestExistingName = bestName
		rec.NameSimilarity = bestScore
	}
}

func nameSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	jw := smetrics.JaroWinkler(a, b, 0.7, 4)

	dist := levenshtein.ComputeDistance(a, b)
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	lev := 1 - float64(dist)/float64(longer)

	return 0.6*jw + 0.4*lev
}
