package models

import "time"

// StagingRecord is a low-confidence neighborhood candidate parked in the
// review queue instead of being inserted into the hierarchy. A reviewer
// either promotes it to a real level-2 node or rejects it.
type StagingRecord struct {
	ExternalListingID       int64      `bson:"external_listing_id" json:"external_listing_id"`
	CandidateDisplayName    string     `bson:"candidate_display_name" json:"candidate_display_name"`
	CandidateNormalizedName string     `bson:"candidate_normalized_name" json:"candidate_normalized_name"`
	Latitude                *float64   `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude               *float64   `bson:"longitude,omitempty" json:"longitude,omitempty"`
	ParentMunicipalityID    int        `bson:"parent_municipality_id" json:"parent_municipality_id"`
	SourceField             string     `bson:"source_field" json:"source_field"`
	NearestExistingName     string     `bson:"nearest_existing_name,omitempty" json:"nearest_existing_name,omitempty"`
	NameSimilarity          float64    `bson:"name_similarity,omitempty" json:"name_similarity,omitempty"`
	Status                  string     `bson:"status" json:"status"`
	ReviewerID              *string    `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`
	ReviewedAt              *time.Time `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	CreatedAt               time.Time  `bson:"created_at" json:"created_at"`
}

// Review status constants
const (
	StagingStatusPending  = "pending"
	StagingStatusApproved = "approved"
	StagingStatusRejected = "rejected"
)

// NewStagingRecord creates a pending staging record.
func NewStagingRecord(externalListingID int64, displayName, normalizedName string, lat, lng *float64, parentID int, sourceField string) *StagingRecord {
	return &StagingRecord{
		ExternalListingID:       externalListingID,
		CandidateDisplayName:    displayName,
		CandidateNormalizedName: normalizedName,
		Latitude:                lat,
		Longitude:               lng,
		ParentMunicipalityID:    parentID,
		SourceField:             sourceField,
		Status:                  StagingStatusPending,
		CreatedAt:               time.Now(),
	}
}

// IsPending reports whether the record still awaits review.
func (sr *StagingRecord) IsPending() bool {
	return sr.Status == StagingStatusPending
}

// UnmatchedListing tracks a listing that ended a run with no hierarchy match
// at all, so curation can revisit it later.
type UnmatchedListing struct {
	ExternalID   int64     `bson:"external_id" json:"external_id"`
	Title        string    `bson:"title" json:"title"`
	SearchedText string    `bson:"searched_text" json:"searched_text"`
	Source       string    `bson:"source" json:"source"`
	Status       string    `bson:"status" json:"status"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
