package models

import "math"

// Match sources beyond the four text fields.
const (
	SourceCoordinates       = "coordinates"
	SourceCoordAutoDiscover = "coordinates+auto-neighborhood"
	SourceTextAutoDiscover  = "text+auto-neighborhood"
)

// MaxMatchedTextLen caps the human-readable evidence string.
const MaxMatchedTextLen = 255

// MatchResult is the outcome of matching one listing against the hierarchy.
// All-nil ids with a nil MatchedLevel is the valid "no match" terminal state,
// not an error.
type MatchResult struct {
	ExternalID int64 `json:"externalId"`

	Ancestry

	MatchedLevel *int     `json:"matchLevel"`
	MatchScore   *float64 `json:"matchScore"`
	MatchSource  string   `json:"matchSource,omitempty"`
	MatchedText  string   `json:"matchedText,omitempty"`
}

// NewUnmatchedResult returns the all-null result for a listing.
func NewUnmatchedResult(externalID int64) *MatchResult {
	return &MatchResult{ExternalID: externalID}
}

// IsMatched reports whether at least one hierarchy level was resolved.
func (r *MatchResult) IsMatched() bool {
	return r.MatchedLevel != nil
}

// SetMatch records the winning level, score and evidence. The score is
// rounded to two decimals and the evidence truncated to MaxMatchedTextLen.
func (r *MatchResult) SetMatch(level int, score float64, source, matchedText string) {
	lvl := level
	s := math.Round(score*100) / 100
	r.MatchedLevel = &lvl
	r.MatchScore = &s
	r.MatchSource = source
	r.MatchedText = TruncateMatchedText(matchedText)
}

// TruncateMatchedText trims evidence strings to the storable length.
func TruncateMatchedText(s string) string {
	if len(s) > MaxMatchedTextLen {
		return s[:MaxMatchedTextLen]
	}
	return s
}
