package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tastybites/backend/internal/models"
)

// OTPStore handles one-time passcode records in MongoDB. A unique index
// on email plus ReplaceOne-with-upsert gives atomic replace-on-reissue;
// the TTL index on expires_at reaps stale records.
type OTPStore struct {
	col *mongo.Collection
}

func NewOTPStore(db *mongo.Database) *OTPStore {
	return &OTPStore{col: db.Collection(colOTPs)}
}

// Replace atomically installs a fresh record for the email, superseding
// any previous code.
func (s *OTPStore) Replace(ctx context.Context, rec *models.OTP) error {
	rec.CreatedAt = time.Now()
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"email": rec.Email},
		rec,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("replace otp: %w", err)
	}
	return nil
}

// Find looks up the record by exact (email, code) match.
func (s *OTPStore) Find(ctx context.Context, email, code string) (*models.OTP, error) {
	var rec models.OTP
	err := s.col.FindOne(ctx, bson.M{"email": email, "otp": code}).Decode(&rec)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &rec, nil
}

// MarkVerified flips the record to verified and pushes its expiry out so
// the TTL reaper cannot delete it before registration consumes it.
func (s *OTPStore) MarkVerified(ctx context.Context, email, code string, newExpiry time.Time) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"email": email, "otp": code, "verified": false},
		bson.M{"$set": bson.M{"verified": true, "expires_at": newExpiry}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindVerified returns the email's verified, unexpired record if one exists.
func (s *OTPStore) FindVerified(ctx context.Context, email string) (*models.OTP, error) {
	var rec models.OTP
	err := s.col.FindOne(ctx, bson.M{
		"email":      email,
		"verified":   true,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&rec)
	if err != nil {
		return nil, wrapFindErr(err)
	}
	return &rec, nil
}

// DeleteByEmail removes every record for the email, consuming the code.
func (s *OTPStore) DeleteByEmail(ctx context.Context, email string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"email": email})
	return err
}
