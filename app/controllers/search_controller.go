package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/location-matcher/app/requests"
	"github.com/location-matcher/app/responses"
	"github.com/location-matcher/internal/search"
)

// SearchController exposes fuzzy hierarchy lookup for the curation UI.
type SearchController struct {
	searcher *search.HierarchySearcher
	logger   *zap.Logger
}

func NewSearchController(searcher *search.HierarchySearcher, logger *zap.Logger) *SearchController {
	return &SearchController{searcher: searcher, logger: logger}
}

// SearchHierarchy finds hierarchy nodes by name.
func (sc *SearchController) SearchHierarchy(c *gin.Context) {
	var req requests.SearchHierarchyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	nodes, err := sc.searcher.Search(req.Query, req.Level, req.Limit)
	if err != nil {
		sc.logger.Error("hierarchy search failed", zap.String("query", req.Query), zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "SEARCH_ERROR",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, responses.SearchHierarchyResponse{
		Nodes: nodes,
		Total: len(nodes),
	})
}
