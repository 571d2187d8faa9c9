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

// UserStore handles account CRUD in MongoDB.
type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection(colUsers)}
}

// Create inserts a new user. Returns ErrDuplicate if the email is taken.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	res, err := s.col.InsertOne(ctx, u)
	if err != nil {
		return fmt.Errorf("create user: %w", wrapWriteErr(err))
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &u, nil
}

// Update applies the given field set and bumps updated_at.
func (s *UserStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update user: %w", wrapWriteErr(err))
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetToken stores a hashed password-reset token with its expiry.
func (s *UserStore) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	return s.Update(ctx, id, bson.M{
		"reset_password_token":   tokenHash,
		"reset_password_expires": expires,
	})
}

// ClearResetToken removes the reset token fields, e.g. after a rollback
// or a completed reset.
func (s *UserStore) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"reset_password_token": "", "reset_password_expires": ""},
		"$set":   bson.M{"updated_at": time.Now()},
	})
	return err
}

// GetByResetToken finds the user holding an unexpired reset token hash.
func (s *UserStore) GetByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{
		"reset_password_token":   tokenHash,
		"reset_password_expires": bson.M{"$gt": time.Now()},
	}).Decode(&u)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &u, nil
}

// List returns users matching an optional name/email search, newest first.
func (s *UserStore) List(ctx context.Context, search string, page, limit int64) ([]models.User, int64, error) {
	filter := bson.M{}
	if search != "" {
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": search, "$options": "i"}},
			bson.M{"email": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Recent returns the n newest accounts, for the admin dashboard.
func (s *UserStore) Recent(ctx context.Context, n int64) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(n).
		SetProjection(bson.M{"name": 1, "email": 1, "created_at": 1})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}

func (s *UserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AuthorRefs resolves a set of user IDs into embedded author references.
func (s *UserStore) AuthorRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.AuthorRef, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]models.AuthorRef{}, nil
	}
	opts := options.Find().SetProjection(bson.M{"name": 1, "avatar": 1})
	cur, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var refs []models.AuthorRef
	if err := cur.All(ctx, &refs); err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.AuthorRef, len(refs))
	for _, ref := range refs {
		out[ref.ID] = ref
	}
	return out, nil
}
