package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/location-matcher/app/config"
	"github.com/location-matcher/app/models"
	"github.com/location-matcher/internal/hierarchy"
	"github.com/location-matcher/internal/normalizer"
	"github.com/location-matcher/internal/store"
)

// ReviewService drives the manual curation workflow: listing staged
// neighborhood candidates and promoting or rejecting them.
type ReviewService struct {
	logger *zap.Logger
	queue  *store.ReviewQueue
	index  *hierarchy.Index
}

func NewReviewService(logger *zap.Logger, queue *store.ReviewQueue, index *hierarchy.Index) *ReviewService {
	return &ReviewService{logger: logger, queue: queue, index: index}
}

// ListPending returns candidates awaiting review.
func (s *ReviewService) ListPending(ctx context.Context, limit int64) ([]*store.StagedCandidate, error) {
	return s.queue.ListPending(ctx, limit)
}

// Approve promotes a staged candidate to a real neighborhood node. The same
// duplicate check used during discovery applies, so approving a candidate
// that was inserted by a later run simply resolves to the existing node.
func (s *ReviewService) Approve(ctx context.Context, id primitive.ObjectID, reviewerID string) (*models.HierarchyNode, error) {
	sc, err := s.queue.GetStaged(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, fmt.Errorf("staged candidate %s not found", id.Hex())
	}
	rec := &sc.Record
	if !rec.IsPending() {
		return nil, fmt.Errorf("staged candidate %s is already %s", id.Hex(), rec.Status)
	}

	var node *models.HierarchyNode
	err = s.index.WithInsertLock(func() error {
		if dup := s.index.FindLevel2Duplicate(rec.ParentMunicipalityID,
			rec.CandidateNormalizedName, normalizer.StripPrefixes(rec.CandidateNormalizedName),
			rec.Latitude, rec.Longitude, config.C.DedupRadiusKm); dup != nil {
			node = dup
			return nil
		}
		inserted, insertErr := s.index.InsertLevel2(ctx,
			rec.CandidateDisplayName, rec.CandidateNormalizedName,
			normalizer.StripPrefixes(rec.CandidateNormalizedName),
			rec.Latitude, rec.Longitude, rec.ParentMunicipalityID)
		if insertErr != nil {
			return insertErr
		}
		node = inserted
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("approve candidate %s: %w", id.Hex(), err)
	}

	if err := s.queue.UpdateStagedStatus(ctx, id, models.StagingStatusApproved, reviewerID); err != nil {
		// The node exists; a stuck status only needs a second click.
		s.logger.Warn("candidate approved but status update failed",
			zap.String("id", id.Hex()), zap.Error(err))
	}
	s.logger.Info("staged candidate approved",
		zap.String("id", id.Hex()),
		zap.Int("nodeId", node.ID),
		zap.String("reviewer", reviewerID))
	return node, nil
}

// Reject discards a staged candidate.
func (s *ReviewService) Reject(ctx context.Context, id primitive.ObjectID, reviewerID string) error {
	if err := s.queue.UpdateStagedStatus(ctx, id, models.StagingStatusRejected, reviewerID); err != nil {
		return err
	}
	s.logger.Info("staged candidate rejected",
		zap.String("id", id.Hex()),
		zap.String("reviewer", reviewerID))
	return nil
}
