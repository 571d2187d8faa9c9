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

// BlogStore handles blog post CRUD in MongoDB.
type BlogStore struct {
	col *mongo.Collection
}

func NewBlogStore(db *mongo.Database) *BlogStore {
	return &BlogStore{col: db.Collection(colBlogs)}
}

// Insert stores a new blog post. Returns ErrDuplicate on a slug collision.
func (s *BlogStore) Insert(ctx context.Context, b *models.Blog) error {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.Status == "" {
		b.Status = models.BlogDraft
	}
	res, err := s.col.InsertOne(ctx, b)
	if err != nil {
		return fmt.Errorf("insert blog: %w", wrapWriteErr(err))
	}
	b.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *BlogStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Blog, error) {
	var b models.Blog
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &b, nil
}

// GetPublishedBySlugAndView fetches a published post by slug and
// atomically bumps its view counter.
func (s *BlogStore) GetPublishedBySlugAndView(ctx context.Context, slug string) (*models.Blog, error) {
	var b models.Blog
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"slug": slug, "status": models.BlogPublished},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &b, nil
}

// List returns blog posts matching the filter, newest first.
func (s *BlogStore) List(ctx context.Context, f models.BlogFilter, page, limit int64) ([]models.Blog, int64, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Tag != "" {
		q["tags"] = bson.M{"$in": bson.A{f.Tag}}
	}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}

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

	var blogs []models.Blog
	if err := cur.All(ctx, &blogs); err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

// Update applies the field set and bumps updated_at.
func (s *BlogStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Blog, error) {
	fields["updated_at"] = time.Now()
	var b models.Blog
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if err != nil {
		if e := wrapWriteErr(err); e == ErrDuplicate {
			return nil, ErrDuplicate
		}
		return nil, wrapFindErr(err)
	}
	return &b, nil
}

func (s *BlogStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SlugExists reports whether another post already uses the slug.
func (s *BlogStore) SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	q := bson.M{"slug": slug}
	if !exclude.IsZero() {
		q["_id"] = bson.M{"$ne": exclude}
	}
	n, err := s.col.CountDocuments(ctx, q)
	return n > 0, err
}

func (s *BlogStore) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}
