package slug

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMake(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Creamy Garlic Pasta":       "creamy-garlic-pasta",
		"  Spicy! Thai  Curry  ":    "spicy-thai-curry",
		"5-Minute Breakfast Bowl":   "5-minute-breakfast-bowl",
		"Crème Brûlée":              "crème-brûlée",
		"---":                       "",
		"Mom's \"Secret\" Recipe!!": "mom-s-secret-recipe",
	}
	for title, want := range cases {
		assert.Equal(t, want, Make(title), "title %q", title)
	}
}

func TestUnique(t *testing.T) {
	t.Parallel()

	taken := map[string]bool{
		"creamy-garlic-pasta":   true,
		"creamy-garlic-pasta-2": true,
	}
	check := func(_ context.Context, s string, _ primitive.ObjectID) (bool, error) {
		return taken[s], nil
	}

	s, err := Unique(context.Background(), "creamy-garlic-pasta", primitive.NilObjectID, check)
	require.NoError(t, err)
	assert.Equal(t, "creamy-garlic-pasta-3", s)

	s, err = Unique(context.Background(), "fresh-slug", primitive.NilObjectID, check)
	require.NoError(t, err)
	assert.Equal(t, "fresh-slug", s)
}
