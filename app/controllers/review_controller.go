package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
	"github.com/location-matcher/app/requests"
	"github.com/location-matcher/app/responses"
	"github.com/location-matcher/app/services"
)

// ReviewController serves the manual curation workflow for staged
// neighborhood candidates.
type ReviewController struct {
	reviewService *services.ReviewService
	logger        *zap.Logger
}

func NewReviewController(reviewService *services.ReviewService, logger *zap.Logger) *ReviewController {
	return &ReviewController{reviewService: reviewService, logger: logger}
}

// ListPending returns staged candidates awaiting review.
func (rc *ReviewController) ListPending(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	candidates, err := rc.reviewService.ListPending(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "REVIEW_LIST_ERROR",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, responses.PendingReviewResponse{
		Candidates: candidates,
		Total:      len(candidates),
	})
}

// Approve promotes a staged candidate to a neighborhood node.
func (rc *ReviewController) Approve(c *gin.Context) {
	id, req, ok := rc.bindAction(c)
	if !ok {
		return
	}

	node, err := rc.reviewService.Approve(c.Request.Context(), id, req.ReviewerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "REVIEW_APPROVE_ERROR",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, responses.ReviewActionResponse{
		Status: models.StagingStatusApproved,
		Node:   node,
	})
}

// Reject discards a staged candidate.
func (rc *ReviewController) Reject(c *gin.Context) {
	id, req, ok := rc.bindAction(c)
	if !ok {
		return
	}

	if err := rc.reviewService.Reject(c.Request.Context(), id, req.ReviewerID); err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "REVIEW_REJECT_ERROR",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, responses.ReviewActionResponse{
		Status: models.StagingStatusRejected,
	})
}

func (rc *ReviewController) bindAction(c *gin.Context) (primitive.ObjectID, *requests.ReviewActionRequest, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_ID",
			Message: "malformed candidate id",
		})
		return primitive.NilObjectID, nil, false
	}

	var req requests.ReviewActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: err.Error(),
		})
		return primitive.NilObjectID, nil, false
	}
	return id, &req, true
}
