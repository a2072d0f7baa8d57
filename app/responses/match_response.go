package responses

import (
	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/store"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MatchListingResponse wraps one match outcome.
type MatchListingResponse struct {
	Result           *models.MatchResult `json:"result"`
	CacheHit         bool                `json:"cache_hit"`
	ProcessingTimeMs int64               `json:"processing_time_ms"`
}

// PendingReviewResponse lists staged candidates awaiting curation.
type PendingReviewResponse struct {
	Candidates []*store.StagedCandidate `json:"candidates"`
	Total      int                      `json:"total"`
}

// ReviewActionResponse reports the outcome of an approve/reject.
type ReviewActionResponse struct {
	Status string                `json:"status"`
	Node   *models.HierarchyNode `json:"node,omitempty"`
}

// SearchHierarchyResponse lists hierarchy nodes matching a query.
type SearchHierarchyResponse struct {
	Nodes []*models.HierarchyNode `json:"nodes"`
	Total int                     `json:"total"`
}
