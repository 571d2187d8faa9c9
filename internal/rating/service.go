// Package rating maintains the denormalized (average, count) pair on a
// recipe as users vote. Every vote recomputes the aggregate from the full
// rating set, which keeps the cached value trivially verifiable against
// the rows.
package rating

import (
	"context"
	"errors"
	"math"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tastybites/backend/internal/models"
	"github.com/tastybites/backend/internal/store"
)

// ErrInvalidValue rejects votes outside the 1..5 range.
var ErrInvalidValue = errors.New("rating value must be between 1 and 5")

// ErrRecipeNotFound rejects votes for missing recipes.
var ErrRecipeNotFound = errors.New("recipe not found")

// Votes is the rating-row persistence contract.
type Votes interface {
	Upsert(ctx context.Context, userID, recipeID primitive.ObjectID, value int) error
	Get(ctx context.Context, userID, recipeID primitive.ObjectID) (*models.Rating, error)
	Aggregate(ctx context.Context, recipeID primitive.ObjectID) (models.RatingSummary, error)
}

// Recipes is the slice of the recipe store the aggregator needs.
type Recipes interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error)
	SetRatingSummary(ctx context.Context, id primitive.ObjectID, summary models.RatingSummary) error
}

// Service serializes votes per recipe so two concurrent submissions
// cannot both recompute from a set missing the other's write. The vote
// upsert itself is a single conditional write; the lock only covers the
// upsert-then-recompute window.
type Service struct {
	votes   Votes
	recipes Recipes

	mu sync.Mutex
	// locks holds one mutex per recipe ever rated in this process;
	// entries are never evicted. Bounded by the recipe count.
	locks map[primitive.ObjectID]*sync.Mutex
}

func NewService(votes Votes, recipes Recipes) *Service {
	return &Service{
		votes:   votes,
		recipes: recipes,
		locks:   make(map[primitive.ObjectID]*sync.Mutex),
	}
}

func (s *Service) recipeLock(id primitive.ObjectID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Submit records a vote and returns the recomputed aggregate. A repeat
// vote by the same user updates the existing row, so count never grows
// past one per user.
func (s *Service) Submit(ctx context.Context, userID, recipeID primitive.ObjectID, value int) (models.RatingSummary, error) {
	if value < 1 || value > 5 {
		return models.RatingSummary{}, ErrInvalidValue
	}
	if _, err := s.recipes.GetByID(ctx, recipeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.RatingSummary{}, ErrRecipeNotFound
		}
		return models.RatingSummary{}, err
	}

	l := s.recipeLock(recipeID)
	l.Lock()
	defer l.Unlock()

	if err := s.votes.Upsert(ctx, userID, recipeID, value); err != nil {
		return models.RatingSummary{}, err
	}

	summary, err := s.votes.Aggregate(ctx, recipeID)
	if err != nil {
		return models.RatingSummary{}, err
	}
	summary.Average = round1(summary.Average)

	if err := s.recipes.SetRatingSummary(ctx, recipeID, summary); err != nil {
		return models.RatingSummary{}, err
	}
	return summary, nil
}

// UserRating returns the user's stored vote, or 0 when they haven't voted.
func (s *Service) UserRating(ctx context.Context, userID, recipeID primitive.ObjectID) (int, error) {
	r, err := s.votes.Get(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return r.Value, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
