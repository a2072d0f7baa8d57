package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/location-matcher/app/models"
)

// CacheStats summarizes cache effectiveness.
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// MatchCache stores match results keyed by a listing fingerprint, so
// re-scraped listings with unchanged location signals skip the matcher.
type MatchCache interface {
	Get(ctx context.Context, key string) (*models.MatchResult, bool, error)
	Set(ctx context.Context, key string, result *models.MatchResult) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*CacheStats, error)
	Close() error
}

// Fingerprint hashes the location-relevant parts of a listing. Text edits
// that do not touch these fields keep the same key.
func Fingerprint(l *models.ListingInput) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x1f%s\x1f%s\x1f%s\x1f", l.Title, l.LocationText, l.DetailsText, l.DescriptionText)
	if l.HasCoordinates() {
		fmt.Fprintf(h, "%.6f,%.6f", *l.Latitude, *l.Longitude)
	}
	return hex.EncodeToString(h.Sum(nil))
}
