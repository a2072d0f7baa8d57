package matcher

import (
	"strings"

	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/hierarchy"
)

// DepartmentDisambiguator resolves the case where a department name is a
// proper substring of a municipality name ("Cuscatlán" inside "Antiguo
// Cuscatlán") and the listing actually refers to the municipality.
type DepartmentDisambiguator struct {
	logger *zap.Logger
	index  *hierarchy.Index
	text   *TextPatternMatcher
}

func NewDepartmentDisambiguator(logger *zap.Logger, index *hierarchy.Index, text *TextPatternMatcher) *DepartmentDisambiguator {
	return &DepartmentDisambiguator{logger: logger, index: index, text: text}
}

// Redirect returns the municipality the listing really means, or nil to keep
// the department match. A municipality qualifies when its normalized name
// contains the department's as a proper substring and its full name appears
// as a whole word somewhere in the listing text.
func (d *DepartmentDisambiguator) Redirect(dept *models.HierarchyNode, listing *models.ListingInput) *models.HierarchyNode {
	deptName := dept.NormalizedName
	if deptName == "" {
		return nil
	}

	for _, muni := range d.index.Level(models.LevelMunicipality) {
		if muni.NormalizedName == deptName || !strings.Contains(muni.NormalizedName, deptName) {
			continue
		}
		if d.text.ContainsWord(listing, muni.NormalizedName) {
			d.logger.Debug("department redirected to municipality",
				zap.String("department", dept.DisplayName),
				zap.String("municipality", muni.DisplayName))
			return muni
		}
	}
	return nil
}
