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

// CommentStore handles comment CRUD in MongoDB.
type CommentStore struct {
	col *mongo.Collection
}

func NewCommentStore(db *mongo.Database) *CommentStore {
	return &CommentStore{col: db.Collection(colComments)}
}

func (s *CommentStore) Insert(ctx context.Context, c *models.Comment) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	res, err := s.col.InsertOne(ctx, c)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *CommentStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &c, nil
}

// ListByBlog returns a blog post's comments, newest first.
func (s *CommentStore) ListByBlog(ctx context.Context, blogID primitive.ObjectID) ([]models.Comment, error) {
	return s.list(ctx, bson.M{"blog_post": blogID})
}

// ListByRecipe returns a recipe's comments, newest first.
func (s *CommentStore) ListByRecipe(ctx context.Context, recipeID primitive.ObjectID) ([]models.Comment, error) {
	return s.list(ctx, bson.M{"recipe": recipeID})
}

func (s *CommentStore) list(ctx context.Context, q bson.M) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.col.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateContent replaces a comment's text.
func (s *CommentStore) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*models.Comment, error) {
	var c models.Comment
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"content": content, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &c, nil
}

func (s *CommentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CommentStore) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}

// Recent returns the n newest comments, for the admin dashboard.
func (s *CommentStore) Recent(ctx context.Context, n int64) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(n)
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
