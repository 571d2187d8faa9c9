package models

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The rating body uses camelCase keys, matching the query param the
// fetch endpoint reads.
func TestRateRequestBodyShape(t *testing.T) {
	t.Parallel()

	var req RateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"recipeId":"65b2c0f4a1d2e3f4a5b6c7d8","value":4}`), &req))

	assert.Equal(t, "65b2c0f4a1d2e3f4a5b6c7d8", req.RecipeID)
	assert.Equal(t, 4, req.Value)
	assert.NoError(t, validator.New().Struct(&req))
}
