package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/location-matcher/app/config"
	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/hierarchy"
	"github.com/location-matcher/internal/normalizer"
)

// lookaheadWords bounds how far past the word cap the scanner peeks before
// cutting a candidate off.
const lookaheadWords = 4

// trailingFiller words are stripped from the end of a candidate during the
// backward cleanup scan.
var trailingFiller = map[string]bool{
	"la": true, "el": true, "los": true, "las": true,
	"de": true, "del": true, "y": true, "e": true, "a": true,
	"san": true, "santa": true,
	"nor": true, "sur": true, "oriente": true, "poniente": true,
}

// Candidate is a neighborhood name extracted from listing text, not yet
// checked against the index.
type Candidate struct {
	DisplayName        string
	NormalizedName     string
	PrefixStrippedName string
	SourceField        string
}

// HighConfidence reports whether the candidate came from a field trusted
// enough for automatic insertion.
func (c *Candidate) HighConfidence() bool {
	return c.SourceField == models.SourceTitle || c.SourceField == models.SourceLocation
}

// StagingWriter persists low-confidence candidates for manual review.
type StagingWriter interface {
	StageCandidate(ctx context.Context, rec *models.StagingRecord) error
}

// Discovery extracts unseen neighborhood names from listing text and either
// registers them as new level-2 nodes or stages them for review.
type Discovery struct {
	logger  *zap.Logger
	index   *hierarchy.Index
	cfg     *config.MatcherCfg
	staging StagingWriter

	leadWords    map[string]bool
	stopWords    map[string]bool
	invalidNames map[string]bool
	upperNames   map[string]bool // normalized level 3-5 names
}

func New(logger *zap.Logger, index *hierarchy.Index, cfg *config.MatcherCfg, staging StagingWriter) *Discovery {
	d := &Discovery{
		logger:       logger,
		index:        index,
		cfg:          cfg,
		staging:      staging,
		leadWords:    toSet(cfg.Discovery.LeadWords),
		stopWords:    toSet(cfg.Discovery.StopWords),
		invalidNames: toSet(cfg.Discovery.InvalidNames),
		upperNames:   make(map[string]bool),
	}
	// Levels 3-5 are immutable per run, so the name set is built once.
	for _, level := range []int{models.LevelMunicipality, models.LevelDistrict, models.LevelDepartment} {
		for _, n := range index.Level(level) {
			if n.NormalizedName != "" {
				d.upperNames[n.NormalizedName] = true
			}
			if n.PrefixStrippedName != "" {
				d.upperNames[n.PrefixStrippedName] = true
			}
		}
	}
	return d
}

// toSet normalizes each entry so curated lists may carry accents or dotted
// abbreviations.
func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if n := normalizer.Normalize(w); n != "" {
			set[n] = true
		}
	}
	return set
}

// Extract scans the listing's text fields in priority order and returns the
// first well-formed neighborhood candidate, or nil.
func (d *Discovery) Extract(listing *models.ListingInput) *Candidate {
	for _, source := range models.SourceFields {
		text := normalizer.Normalize(listing.TextBySource(source))
		if text == "" {
			continue
		}
		if c := d.extractFromText(text, source); c != nil {
			return c
		}
	}
	return nil
}

func (d *Discovery) extractFromText(text, source string) *Candidate {
	words := strings.Fields(text)
	for i, w := range words {
		if !d.leadWords[w] {
			continue
		}
		name := d.collectName(words[i+1:])
		name = d.stripUpperLevelNames(name)
		name = d.stripTrailingFiller(name)
		if !d.validName(name) {
			continue
		}

		lead := expandAbbreviation(w)
		normalized := lead + " " + strings.Join(name, " ")
		display := normalizer.DisplayName(normalized)
		return &Candidate{
			DisplayName:        display,
			NormalizedName:     normalized,
			PrefixStrippedName: normalizer.StripPrefixes(normalized),
			SourceField:        source,
		}
	}
	return nil
}

// collectName gathers the words following a lead word until a stop word, a
// nested lead word, a bare number, or the word cap is reached.
func (d *Discovery) collectName(words []string) []string {
	limit := d.cfg.Discovery.MaxNameWords + lookaheadWords
	if len(words) > limit {
		words = words[:limit]
	}

	var name []string
	for _, w := range words {
		if d.stopWords[w] || d.leadWords[w] || isNumeric(w) {
			break
		}
		name = append(name, w)
		if len(name) >= d.cfg.Discovery.MaxNameWords {
			break
		}
	}
	return name
}

// stripUpperLevelNames removes municipality/district/department names that
// leaked into the collected words: a forward scan truncates at the earliest
// upper-level name starting from the third word, then a backward scan peels
// trailing upper-level names off.
func (d *Discovery) stripUpperLevelNames(name []string) []string {
	// Forward: look for an upper-level name in windows of 1-3 words.
	for start := 2; start < len(name); start++ {
		for width := 3; width >= 1; width-- {
			if start+width > len(name) {
				continue
			}
			if d.upperNames[strings.Join(name[start:start+width], " ")] {
				name = name[:start]
				break
			}
		}
	}

	// Backward: strip trailing upper-level names until stable.
	for len(name) > 0 {
		stripped := false
		for width := 3; width >= 1; width-- {
			if width > len(name) {
				continue
			}
			tail := strings.Join(name[len(name)-width:], " ")
			if d.upperNames[tail] {
				name = name[:len(name)-width]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return name
}

func (d *Discovery) stripTrailingFiller(name []string) []string {
	for len(name) > 0 && trailingFiller[name[len(name)-1]] {
		name = name[:len(name)-1]
	}
	return name
}

// validName rejects candidates that are too short or carry no proper-noun
// content.
func (d *Discovery) validName(name []string) bool {
	if len(name) == 0 {
		return false
	}
	joined := strings.Join(name, " ")
	if len(joined) < d.cfg.Discovery.MinNameLen {
		return false
	}
	if d.invalidNames[joined] {
		return false
	}
	for _, w := range name {
		if !d.invalidNames[w] && !trailingFiller[w] {
			return true
		}
	}
	return false
}

func isNumeric(w string) bool {
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(w) > 0
}

var abbreviations = map[string]string{
	"res":  "residencial",
	"col":  "colonia",
	"urb":  "urbanizacion",
	"bo":   "barrio",
	"cond": "condominio",
}

func expandAbbreviation(lead string) string {
	if full, ok := abbreviations[lead]; ok {
		return full
	}
	return lead
}

// Register resolves a candidate under the given municipality: a duplicate
// returns the existing node, a high-confidence candidate is inserted, a
// low-confidence one is staged. The duplicate check and the insert run under
// the index's insert lock so two workers cannot both create the same place.
//
// The returned node is nil when the candidate was staged (or staging failed,
// which is only logged).
func (d *Discovery) Register(ctx context.Context, listing *models.ListingInput, c *Candidate, municipalityID int) (*models.HierarchyNode, error) {
	var node *models.HierarchyNode

	err := d.index.WithInsertLock(func() error {
		if dup := d.index.FindLevel2Duplicate(municipalityID, c.NormalizedName, c.PrefixStrippedName,
			listing.Latitude, listing.Longitude, d.cfg.DedupRadiusKm); dup != nil {
			d.logger.Debug("discovery candidate already known",
				zap.String("candidate", c.DisplayName),
				zap.Int("existingId", dup.ID))
			node = dup
			return nil
		}

		if !c.HighConfidence() {
			d.stage(ctx, listing, c, municipalityID)
			return nil
		}

		inserted, err := d.index.InsertLevel2(ctx, c.DisplayName, c.NormalizedName, c.PrefixStrippedName,
			listing.Latitude, listing.Longitude, municipalityID)
		if errors.Is(err, hierarchy.ErrInsertConflict) {
			// Degrade to staging rather than losing the candidate.
			d.stage(ctx, listing, c, municipalityID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("register neighborhood %q: %w", c.DisplayName, err)
		}
		node = inserted
		return nil
	})
	return node, err
}

func (d *Discovery) stage(ctx context.Context, listing *models.ListingInput, c *Candidate, municipalityID int) {
	if d.staging == nil {
		return
	}
	rec := models.NewStagingRecord(listing.ExternalID, c.DisplayName, c.NormalizedName,
		listing.Latitude, listing.Longitude, municipalityID, c.SourceField)
	d.annotateSimilarity(rec, municipalityID)
	if err := d.staging.StageCandidate(ctx, rec); err != nil {
		// Losing a staged candidate only delays curation.
		d.logger.Warn("staging write failed",
			zap.String("candidate", c.DisplayName),
			zap.Error(err))
	}
}
