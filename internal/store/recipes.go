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

// RecipeStore handles recipe CRUD in MongoDB.
type RecipeStore struct {
	col *mongo.Collection
}

func NewRecipeStore(db *mongo.Database) *RecipeStore {
	return &RecipeStore{col: db.Collection(colRecipes)}
}

// Insert stores a new recipe. Returns ErrDuplicate on a slug collision.
func (s *RecipeStore) Insert(ctx context.Context, r *models.Recipe) error {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	res, err := s.col.InsertOne(ctx, r)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", wrapWriteErr(err))
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *RecipeStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	var r models.Recipe
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &r, nil
}

// GetBySlugAndView fetches a recipe by slug and atomically bumps its
// view counter.
func (s *RecipeStore) GetBySlugAndView(ctx context.Context, slug string) (*models.Recipe, error) {
	var r models.Recipe
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"slug": slug},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &r, nil
}

// ViewByID bumps the view counter and returns the updated recipe.
func (s *RecipeStore) ViewByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	var r models.Recipe
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &r, nil
}

func filterQuery(f models.RecipeFilter) bson.M {
	q := bson.M{}
	if f.Cuisine != "" {
		q["cuisine"] = f.Cuisine
	}
	if f.Category != "" {
		q["category"] = bson.M{"$in": bson.A{f.Category}}
	}
	if f.MealType != "" {
		q["meal_type"] = f.MealType
	}
	if f.Difficulty != "" {
		q["difficulty"] = f.Difficulty
	}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	if !f.AuthorID.IsZero() {
		q["author"] = f.AuthorID
	}
	return q
}

// List returns recipes matching the filter, newest first, with the total count.
func (s *RecipeStore) List(ctx context.Context, f models.RecipeFilter, page, limit int64) ([]models.Recipe, int64, error) {
	q := filterQuery(f)

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

	var recipes []models.Recipe
	if err := cur.All(ctx, &recipes); err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// Update applies the field set and bumps updated_at. Returns ErrDuplicate
// when a slug change collides.
func (s *RecipeStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Recipe, error) {
	fields["updated_at"] = time.Now()
	var r models.Recipe
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		if e := wrapWriteErr(err); e == ErrDuplicate {
			return nil, ErrDuplicate
		}
		return nil, wrapFindErr(err)
	}
	return &r, nil
}

func (s *RecipeStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SlugExists reports whether another recipe already uses the slug.
func (s *RecipeStore) SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	q := bson.M{"slug": slug}
	if !exclude.IsZero() {
		q["_id"] = bson.M{"$ne": exclude}
	}
	n, err := s.col.CountDocuments(ctx, q)
	return n > 0, err
}

// SetFeatured toggles the featured flag.
func (s *RecipeStore) SetFeatured(ctx context.Context, id primitive.ObjectID, featured bool) (*models.Recipe, error) {
	return s.Update(ctx, id, bson.M{"featured": featured})
}

// IncFavorites adjusts the favorites counter by delta, clamped at zero.
func (s *RecipeStore) IncFavorites(ctx context.Context, id primitive.ObjectID, delta int) error {
	if delta < 0 {
		// Never drop below zero even if counters drifted.
		res := s.col.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "favorites": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"favorites": delta}},
		)
		if err := res.Err(); err != nil && !isNoDocuments(err) {
			return err
		}
		return nil
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"favorites": delta}})
	return err
}

// SetRatingSummary writes the denormalized (average, count) pair.
func (s *RecipeStore) SetRatingSummary(ctx context.Context, id primitive.ObjectID, summary models.RatingSummary) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"rating": summary}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RecipeStore) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}

// MostViewed returns the n recipes with the highest view counts.
func (s *RecipeStore) MostViewed(ctx context.Context, n int64) ([]models.Recipe, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "views", Value: -1}}).
		SetLimit(n).
		SetProjection(bson.M{"title": 1, "slug": 1, "views": 1, "favorites": 1, "rating": 1})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recipes []models.Recipe
	if err := cur.All(ctx, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func isNoDocuments(err error) bool {
	return wrapFindErr(err) == ErrNotFound
}
