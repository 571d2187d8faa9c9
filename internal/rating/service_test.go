package rating

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tastybites/backend/internal/models"
	"github.com/tastybites/backend/internal/store"
)

type voteKey struct {
	user   primitive.ObjectID
	recipe primitive.ObjectID
}

// fakeVotes mimics the unique (user, recipe) index with a keyed map.
type fakeVotes struct {
	mu    sync.Mutex
	votes map[voteKey]int
}

func newFakeVotes() *fakeVotes {
	return &fakeVotes{votes: make(map[voteKey]int)}
}

func (f *fakeVotes) Upsert(_ context.Context, userID, recipeID primitive.ObjectID, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes[voteKey{userID, recipeID}] = value
	return nil
}

func (f *fakeVotes) Get(_ context.Context, userID, recipeID primitive.ObjectID) (*models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.votes[voteKey{userID, recipeID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &models.Rating{UserID: userID, RecipeID: recipeID, Value: v}, nil
}

func (f *fakeVotes) Aggregate(_ context.Context, recipeID primitive.ObjectID) (models.RatingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum, count int64
	for k, v := range f.votes {
		if k.recipe == recipeID {
			sum += int64(v)
			count++
		}
	}
	if count == 0 {
		return models.RatingSummary{}, nil
	}
	return models.RatingSummary{Average: float64(sum) / float64(count), Count: count}, nil
}

type fakeRecipes struct {
	mu        sync.Mutex
	existing  map[primitive.ObjectID]bool
	summaries map[primitive.ObjectID]models.RatingSummary
}

func newFakeRecipes(ids ...primitive.ObjectID) *fakeRecipes {
	f := &fakeRecipes{
		existing:  make(map[primitive.ObjectID]bool),
		summaries: make(map[primitive.ObjectID]models.RatingSummary),
	}
	for _, id := range ids {
		f.existing[id] = true
	}
	return f
}

func (f *fakeRecipes) GetByID(_ context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.existing[id] {
		return nil, store.ErrNotFound
	}
	return &models.Recipe{ID: id}, nil
}

func (f *fakeRecipes) SetRatingSummary(_ context.Context, id primitive.ObjectID, summary models.RatingSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries[id] = summary
	return nil
}

func TestSubmitRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	recipeID := primitive.NewObjectID()
	svc := NewService(newFakeVotes(), newFakeRecipes(recipeID))

	for _, v := range []int{0, -1, 6, 100} {
		_, err := svc.Submit(context.Background(), primitive.NewObjectID(), recipeID, v)
		assert.ErrorIs(t, err, ErrInvalidValue)
	}
}

func TestSubmitUnknownRecipe(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeVotes(), newFakeRecipes())
	_, err := svc.Submit(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), 4)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestSubmitAggregates(t *testing.T) {
	t.Parallel()

	recipeID := primitive.NewObjectID()
	recipes := newFakeRecipes(recipeID)
	svc := NewService(newFakeVotes(), recipes)
	ctx := context.Background()

	_, err := svc.Submit(ctx, primitive.NewObjectID(), recipeID, 5)
	require.NoError(t, err)
	summary, err := svc.Submit(ctx, primitive.NewObjectID(), recipeID, 4)
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.Count)
	assert.InDelta(t, 4.5, summary.Average, 0.001)
	assert.Equal(t, summary, recipes.summaries[recipeID])
}

func TestSubmitAverageRoundedToOneDecimal(t *testing.T) {
	t.Parallel()

	recipeID := primitive.NewObjectID()
	svc := NewService(newFakeVotes(), newFakeRecipes(recipeID))
	ctx := context.Background()

	// 5, 4, 4 -> 4.333... -> 4.3
	for _, v := range []int{5, 4} {
		_, err := svc.Submit(ctx, primitive.NewObjectID(), recipeID, v)
		require.NoError(t, err)
	}
	summary, err := svc.Submit(ctx, primitive.NewObjectID(), recipeID, 4)
	require.NoError(t, err)

	assert.Equal(t, 4.3, summary.Average)
	assert.Equal(t, int64(3), summary.Count)
}

func TestRepeatVoteUpdatesNotDuplicates(t *testing.T) {
	t.Parallel()

	recipeID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	svc := NewService(newFakeVotes(), newFakeRecipes(recipeID))
	ctx := context.Background()

	first, err := svc.Submit(ctx, userID, recipeID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Count)
	assert.Equal(t, 2.0, first.Average)

	second, err := svc.Submit(ctx, userID, recipeID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Count)
	assert.Equal(t, 5.0, second.Average)
}

func TestRepeatSameValueIsIdempotent(t *testing.T) {
	t.Parallel()

	recipeID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	svc := NewService(newFakeVotes(), newFakeRecipes(recipeID))
	ctx := context.Background()

	first, err := svc.Submit(ctx, userID, recipeID, 3)
	require.NoError(t, err)
	second, err := svc.Submit(ctx, userID, recipeID, 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestConcurrentVotesStayConsistent(t *testing.T) {
	t.Parallel()

	recipeID := primitive.NewObjectID()
	recipes := newFakeRecipes(recipeID)
	svc := NewService(newFakeVotes(), recipes)
	ctx := context.Background()

	const voters = 20
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(value int) {
			defer wg.Done()
			_, err := svc.Submit(ctx, primitive.NewObjectID(), recipeID, value)
			assert.NoError(t, err)
		}(i%5 + 1)
	}
	wg.Wait()

	summary := recipes.summaries[recipeID]
	assert.Equal(t, int64(voters), summary.Count)
	// 20 voters over values 1..5, 4 apiece.
	assert.Equal(t, 3.0, summary.Average)
}

func TestUserRating(t *testing.T) {
	t.Parallel()

	recipeID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	svc := NewService(newFakeVotes(), newFakeRecipes(recipeID))
	ctx := context.Background()

	value, err := svc.UserRating(ctx, userID, recipeID)
	require.NoError(t, err)
	assert.Zero(t, value)

	_, err = svc.Submit(ctx, userID, recipeID, 4)
	require.NoError(t, err)

	value, err = svc.UserRating(ctx, userID, recipeID)
	require.NoError(t, err)
	assert.Equal(t, 4, value)
}
