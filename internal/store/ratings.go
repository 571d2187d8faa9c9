package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tastybites/backend/internal/models"
)

// RatingStore handles rating rows in MongoDB. The (user, recipe) pair is
// unique; Upsert relies on that index for its atomicity.
type RatingStore struct {
	col *mongo.Collection
}

func NewRatingStore(db *mongo.Database) *RatingStore {
	return &RatingStore{col: db.Collection(colRatings)}
}

// Upsert records a user's vote, replacing any previous one in a single
// conditional write.
func (s *RatingStore) Upsert(ctx context.Context, userID, recipeID primitive.ObjectID, value int) error {
	now := time.Now()
	_, err := s.col.UpdateOne(ctx,
		bson.M{"user": userID, "recipe": recipeID},
		bson.M{
			"$set":         bson.M{"value": value, "updated_at": now},
			"$setOnInsert": bson.M{"user": userID, "recipe": recipeID, "created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// Get returns the user's vote for a recipe, or ErrNotFound.
func (s *RatingStore) Get(ctx context.Context, userID, recipeID primitive.ObjectID) (*models.Rating, error) {
	var r models.Rating
	err := s.col.FindOne(ctx, bson.M{"user": userID, "recipe": recipeID}).Decode(&r)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &r, nil
}

// Aggregate recomputes (average, count) over every rating row of a recipe.
// Recompute-from-scratch keeps the aggregate trivially verifiable.
func (s *RatingStore) Aggregate(ctx context.Context, recipeID primitive.ObjectID) (models.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"recipe": recipeID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$value"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Average float64 `bson:"average"`
		Count   int64   `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return models.RatingSummary{}, err
	}
	if len(rows) == 0 {
		return models.RatingSummary{}, nil
	}
	return models.RatingSummary{Average: rows[0].Average, Count: rows[0].Count}, nil
}
