package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/location-matcher/app/models"
)

const (
	stagingCollection   = "staged_neighborhoods"
	unmatchedCollection = "unmatched_listings"
)

// ReviewQueue holds staged neighborhood candidates and unmatched listings in
// MongoDB for manual curation.
type ReviewQueue struct {
	client    *mongo.Client
	staged    *mongo.Collection
	unmatched *mongo.Collection
	logger    *zap.Logger
}

func NewReviewQueue(ctx context.Context, uri, database string, logger *zap.Logger) (*ReviewQueue, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	q := &ReviewQueue{
		client:    client,
		staged:    client.Database(database).Collection(stagingCollection),
		unmatched: client.Database(database).Collection(unmatchedCollection),
		logger:    logger,
	}
	if err := q.ensureIndexes(ctx); err != nil {
		logger.Warn("could not create review queue indexes", zap.Error(err))
	}
	return q, nil
}

func (q *ReviewQueue) ensureIndexes(ctx context.Context) error {
	_, err := q.staged.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "parent_municipality_id", Value: 1}, {Key: "candidate_normalized_name", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = q.unmatched.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "external_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// StageCandidate writes one pending staging record. An identical pending
// candidate for the same municipality is not duplicated.
func (q *ReviewQueue) StageCandidate(ctx context.Context, rec *models.StagingRecord) error {
	filter := bson.M{
		"parent_municipality_id":    rec.ParentMunicipalityID,
		"candidate_normalized_name": rec.CandidateNormalizedName,
		"status":                    models.StagingStatusPending,
	}
	update := bson.M{"$setOnInsert": rec}
	_, err := q.staged.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("stage candidate: %w", err)
	}
	return nil
}

// StagedCandidate pairs a staging record with its queue id.
type StagedCandidate struct {
	ID     primitive.ObjectID   `bson:"_id" json:"id"`
	Record models.StagingRecord `bson:",inline"`
}

// ListPending returns pending staging records, newest first.
func (q *ReviewQueue) ListPending(ctx context.Context, limit int64) ([]*StagedCandidate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := q.staged.Find(ctx, bson.M{"status": models.StagingStatusPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("list pending candidates: %w", err)
	}
	defer cur.Close(ctx)

	var out []*StagedCandidate
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode pending candidates: %w", err)
	}
	return out, nil
}

// GetStaged fetches one staging record by queue id.
func (q *ReviewQueue) GetStaged(ctx context.Context, id primitive.ObjectID) (*StagedCandidate, error) {
	var sc StagedCandidate
	err := q.staged.FindOne(ctx, bson.M{"_id": id}).Decode(&sc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get staged candidate: %w", err)
	}
	return &sc, nil
}

// UpdateStagedStatus transitions a pending record to approved or rejected.
func (q *ReviewQueue) UpdateStagedStatus(ctx context.Context, id primitive.ObjectID, status, reviewerID string) error {
	res, err := q.staged.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StagingStatusPending},
		bson.M{"$set": bson.M{
			"status":      status,
			"reviewer_id": reviewerID,
			"reviewed_at": time.Now(),
		}})
	if err != nil {
		return fmt.Errorf("update staged status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("staged candidate %s is not pending", id.Hex())
	}
	return nil
}

// TrackUnmatched records a listing that finished a run with no match.
func (q *ReviewQueue) TrackUnmatched(ctx context.Context, listing *models.ListingInput, source string) error {
	doc := models.UnmatchedListing{
		ExternalID:   listing.ExternalID,
		Title:        listing.Title,
		SearchedText: listing.LocationText,
		Source:       source,
		Status:       models.StagingStatusPending,
		CreatedAt:    time.Now(),
	}
	_, err := q.unmatched.UpdateOne(ctx,
		bson.M{"external_id": listing.ExternalID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("track unmatched listing: %w", err)
	}
	return nil
}

// CountPending returns the number of staging records awaiting review.
func (q *ReviewQueue) CountPending(ctx context.Context) (int64, error) {
	return q.staged.CountDocuments(ctx, bson.M{"status": models.StagingStatusPending})
}

func (q *ReviewQueue) Close(ctx context.Context) error {
	return q.client.Disconnect(ctx)
}
