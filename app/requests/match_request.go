package requests

// MatchListingRequest is the payload for ad-hoc matching of one listing.
type MatchListingRequest struct {
	ExternalID      int64    `json:"external_id" binding:"required"`
	Title           string   `json:"title"`
	LocationText    string   `json:"location_text"`
	DetailsText     string   `json:"details_text"`
	DescriptionText string   `json:"description_text"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	// UseCache defaults to true when omitted.
	UseCache *bool `json:"use_cache"`
}

// ReviewActionRequest identifies the reviewer acting on a staged candidate.
type ReviewActionRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"`
}

// SearchHierarchyRequest holds the query parameters of a hierarchy search.
type SearchHierarchyRequest struct {
	Query string `form:"q" binding:"required"`
	Level int    `form:"level"`
	Limit int64  `form:"limit"`
}
