package matcher

import (
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/location-matcher/app/config"
	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/normalizer"
)

// TextMatch is a scored name hit within one of the listing's text fields.
type TextMatch struct {
	Node          *models.HierarchyNode
	RawScore      float64
	AdjustedScore float64
	Source        string
	MatchedText   string // the name variant that hit
}

// TextPatternMatcher scores hierarchy nodes against listing text using
// whole-word matching over three name-variant tiers, weighted per source
// field.
type TextPatternMatcher struct {
	logger *zap.Logger
	cfg    *config.MatcherCfg

	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func NewTextPatternMatcher(logger *zap.Logger, cfg *config.MatcherCfg) *TextPatternMatcher {
	return &TextPatternMatcher{
		logger:   logger,
		cfg:      cfg,
		patterns: make(map[string]*regexp.Regexp),
	}
}

// pattern returns a cached word-boundary regexp for a normalized name, so a
// short name never matches inside a longer unrelated word.
func (m *TextPatternMatcher) pattern(name string) *regexp.Regexp {
	m.mu.RLock()
	re := m.patterns[name]
	m.mu.RUnlock()
	if re != nil {
		return re
	}

	re = regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	m.mu.Lock()
	m.patterns[name] = re
	m.mu.Unlock()
	return re
}

// variantScore returns the raw score for the i-th name variant of a node:
// normalized name first, then prefix-stripped, then aliases.
func (m *TextPatternMatcher) variantScore(node *models.HierarchyNode, variant string) float64 {
	switch variant {
	case node.NormalizedName:
		return m.cfg.VariantScores.Normalized
	case node.PrefixStrippedName:
		return m.cfg.VariantScores.PrefixStripped
	}
	return m.cfg.VariantScores.Alternate
}

// FindMatch scores every candidate against every text field and returns the
// best hit clearing the raw-score threshold, or nil. Sources are visited in
// priority order so that on an adjusted-score tie the higher-priority field
// wins; within a field the higher raw score wins.
func (m *TextPatternMatcher) FindMatch(listing *models.ListingInput, candidates []*models.HierarchyNode) *TextMatch {
	var best *TextMatch

	for _, source := range models.SourceFields {
		text := normalizer.Normalize(listing.TextBySource(source))
		if text == "" {
			continue
		}
		weight := m.cfg.SourceWeight(source)

		for _, node := range candidates {
			for _, variant := range node.NameVariants() {
				if len(variant) < 2 {
					continue
				}
				raw := m.variantScore(node, variant)
				if raw < m.cfg.TextScoreThreshold {
					continue
				}
				if !m.pattern(variant).MatchString(text) {
					continue
				}
				// Sources are walked best-first, so a strict comparison
				// keeps the higher-priority field on a tie.
				adjusted := raw * weight
				if best == nil || adjusted > best.AdjustedScore {
					best = &TextMatch{
						Node:          node,
						RawScore:      raw,
						AdjustedScore: adjusted,
						Source:        source,
						MatchedText:   variant,
					}
				}
				// First variant hit is the best one for this node in
				// this field; variants are ordered by raw score.
				break
			}
		}
	}

	if best != nil {
		m.logger.Debug("text match",
			zap.Int("nodeId", best.Node.ID),
			zap.Int("level", best.Node.Level),
			zap.String("source", best.Source),
			zap.Float64("rawScore", best.RawScore),
			zap.Float64("adjustedScore", best.AdjustedScore))
	}
	return best
}

// ContainsWord reports whether the already-normalized name appears as a
// whole word in any of the listing's text fields.
func (m *TextPatternMatcher) ContainsWord(listing *models.ListingInput, name string) bool {
	if name == "" {
		return false
	}
	re := m.pattern(name)
	for _, source := range models.SourceFields {
		text := normalizer.Normalize(listing.TextBySource(source))
		if text != "" && re.MatchString(text) {
			return true
		}
	}
	return false
}
