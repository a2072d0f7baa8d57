package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
	"github.com/location-matcher/app/requests"
	"github.com/location-matcher/app/responses"
	"github.com/location-matcher/app/services"
)

// MatchController serves ad-hoc matching of single listings, mainly for
// debugging and for upstream services that cannot wait for the next batch.
type MatchController struct {
	matchService *services.MatchService
	cache        services.MatchCache
	logger       *zap.Logger
}

func NewMatchController(matchService *services.MatchService, cache services.MatchCache, logger *zap.Logger) *MatchController {
	return &MatchController{matchService: matchService, cache: cache, logger: logger}
}

// MatchListing resolves one listing against the hierarchy.
func (mc *MatchController) MatchListing(c *gin.Context) {
	var req requests.MatchListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	start := time.Now()
	listing := &models.ListingInput{
		ExternalID:      req.ExternalID,
		Title:           req.Title,
		LocationText:    req.LocationText,
		DetailsText:     req.DetailsText,
		DescriptionText: req.DescriptionText,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
	}

	useCache := req.UseCache == nil || *req.UseCache
	result, cacheHit := mc.matchService.MatchOne(c.Request.Context(), listing, useCache)

	c.JSON(http.StatusOK, responses.MatchListingResponse{
		Result:           result,
		CacheHit:         cacheHit,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// CacheStats exposes cache effectiveness counters.
func (mc *MatchController) CacheStats(c *gin.Context) {
	if mc.cache == nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "CACHE_DISABLED",
			Message: "no cache configured",
		})
		return
	}
	stats, err := mc.cache.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "CACHE_STATS_ERROR",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}
