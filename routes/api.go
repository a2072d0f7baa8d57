package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/location-matcher/app/controllers"
)

// Register wires the v1 API surface. The search controller may be nil when
// Meilisearch is not configured.
func Register(r *gin.Engine,
	match *controllers.MatchController,
	review *controllers.ReviewController,
	search *controllers.SearchController) {

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/match", match.MatchListing)
		v1.GET("/cache/stats", match.CacheStats)

		reviews := v1.Group("/reviews")
		{
			reviews.GET("/pending", review.ListPending)
			reviews.POST("/:id/approve", review.Approve)
			reviews.POST("/:id/reject", review.Reject)
		}

		if search != nil {
			v1.GET("/hierarchy/search", search.SearchHierarchy)
		}
	}
}
