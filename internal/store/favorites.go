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

// FavoriteStore handles the (user, recipe) favorites join collection.
type FavoriteStore struct {
	col *mongo.Collection
}

func NewFavoriteStore(db *mongo.Database) *FavoriteStore {
	return &FavoriteStore{col: db.Collection(colFavorites)}
}

// Add inserts a favorite. Returns ErrDuplicate if the pair already exists.
func (s *FavoriteStore) Add(ctx context.Context, userID, recipeID primitive.ObjectID) error {
	_, err := s.col.InsertOne(ctx, models.Favorite{
		UserID:    userID,
		RecipeID:  recipeID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("add favorite: %w", wrapWriteErr(err))
	}
	return nil
}

// Exists reports whether the user has favorited the recipe.
func (s *FavoriteStore) Exists(ctx context.Context, userID, recipeID primitive.ObjectID) (bool, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"user": userID, "recipe": recipeID})
	return n > 0, err
}

// Remove deletes the pair. Returns ErrNotFound when it was not favorited.
func (s *FavoriteStore) Remove(ctx context.Context, userID, recipeID primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"user": userID, "recipe": recipeID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns a page of the user's favorites, newest first.
func (s *FavoriteStore) ListByUser(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]models.Favorite, int64, error) {
	q := bson.M{"user": userID}

	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cur, err := s.col.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var favorites []models.Favorite
	if err := cur.All(ctx, &favorites); err != nil {
		return nil, 0, err
	}
	return favorites, total, nil
}
