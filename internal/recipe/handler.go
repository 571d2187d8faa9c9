package recipe

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tastybites/backend/internal/auth"
	"github.com/tastybites/backend/internal/middleware"
	"github.com/tastybites/backend/internal/models"
	"github.com/tastybites/backend/internal/rating"
	"github.com/tastybites/backend/internal/response"
	"github.com/tastybites/backend/internal/slug"
	"github.com/tastybites/backend/internal/store"
)

const (
	defaultLimit = 12
	maxLimit     = 50
)

// Handler serves the recipe, rating and favorite routes.
type Handler struct {
	recipes   *store.RecipeStore
	favorites *store.FavoriteStore
	users     *store.UserStore
	ratings   *rating.Service
	validate  *validator.Validate
	log       *zap.Logger
}

func NewHandler(recipes *store.RecipeStore, favorites *store.FavoriteStore, users *store.UserStore, ratings *rating.Service, log *zap.Logger) *Handler {
	return &Handler{
		recipes:   recipes,
		favorites: favorites,
		users:     users,
		ratings:   ratings,
		validate:  validator.New(),
		log:       log,
	}
}

// pageParams reads ?page= and ?limit= with sane bounds.
func pageParams(r *http.Request) (page, limit int64) {
	page, _ = strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func pathID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

// attachAuthors resolves the author reference on each recipe in place.
func (h *Handler) attachAuthors(r *http.Request, recipes []models.Recipe) {
	ids := make([]primitive.ObjectID, 0, len(recipes))
	for _, rec := range recipes {
		ids = append(ids, rec.AuthorID)
	}
	refs, err := h.users.AuthorRefs(r.Context(), ids)
	if err != nil {
		h.log.Warn("author lookup failed", zap.Error(err))
		return
	}
	for i := range recipes {
		if ref, ok := refs[recipes[i].AuthorID]; ok {
			recipes[i].Author = &ref
		}
	}
}

func (h *Handler) attachAuthor(r *http.Request, rec *models.Recipe) {
	refs, err := h.users.AuthorRefs(r.Context(), []primitive.ObjectID{rec.AuthorID})
	if err != nil {
		h.log.Warn("author lookup failed", zap.Error(err))
		return
	}
	if ref, ok := refs[rec.AuthorID]; ok {
		rec.Author = &ref
	}
}

// List returns recipes matching the query-string filters, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.RecipeFilter{
		Cuisine:    q.Get("cuisine"),
		Category:   q.Get("category"),
		MealType:   q.Get("mealType"),
		Difficulty: q.Get("difficulty"),
	}
	if q.Get("featured") == "true" {
		t := true
		filter.Featured = &t
	}

	page, limit := pageParams(r)
	recipes, total, err := h.recipes.List(r.Context(), filter, page, limit)
	if err != nil {
		h.log.Error("recipe list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch recipes")
		return
	}
	h.attachAuthors(r, recipes)

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"recipes":    recipes,
		"pagination": models.NewPagination(total, page, limit),
	})
}

// Featured returns the featured recipes without pagination.
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	t := true
	recipes, _, err := h.recipes.List(r.Context(), models.RecipeFilter{Featured: &t}, 1, defaultLimit)
	if err != nil {
		h.log.Error("featured recipes failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch recipes")
		return
	}
	h.attachAuthors(r, recipes)
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "recipes": recipes})
}

// Mine lists the authenticated user's own recipes.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	authorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	page, limit := pageParams(r)
	recipes, total, err := h.recipes.List(r.Context(), models.RecipeFilter{AuthorID: authorID}, page, limit)
	if err != nil {
		h.log.Error("own recipes failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch recipes")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"recipes":    recipes,
		"pagination": models.NewPagination(total, page, limit),
	})
}

// Create inserts a recipe authored by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	authorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var input models.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "missing or malformed fields")
		return
	}

	s, err := slug.Unique(r.Context(), slug.Make(input.Title), primitive.NilObjectID, h.recipes.SlugExists)
	if err != nil {
		h.log.Error("slug check failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to create recipe")
		return
	}

	rec := &models.Recipe{
		Title:        input.Title,
		Slug:         s,
		Description:  input.Description,
		Ingredients:  input.Ingredients,
		Instructions: input.Instructions,
		PrepTime:     input.PrepTime,
		CookTime:     input.CookTime,
		Servings:     input.Servings,
		Difficulty:   input.Difficulty,
		Cuisine:      input.Cuisine,
		Category:     input.Category,
		MealType:     input.MealType,
		Images:       input.Images,
		AuthorID:     authorID,
	}
	if err := h.recipes.Insert(r.Context(), rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			response.Error(w, http.StatusConflict, "A recipe with this title already exists")
			return
		}
		h.log.Error("recipe insert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to create recipe")
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{"success": true, "recipe": rec})
}

// Get returns one recipe by id and counts the view.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	rec, err := h.recipes.ViewByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Recipe not found")
			return
		}
		h.log.Error("recipe fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch recipe")
		return
	}
	h.attachAuthor(r, rec)
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "recipe": rec})
}

// GetBySlug returns one recipe by slug and counts the view.
func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	rec, err := h.recipes.GetBySlugAndView(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Recipe not found")
			return
		}
		h.log.Error("recipe fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch recipe")
		return
	}
	h.attachAuthor(r, rec)
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "recipe": rec})
}

// canEdit allows the recipe's author and admins.
func (h *Handler) canEdit(r *http.Request, rec *models.Recipe) bool {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		return false
	}
	if claims.UserID == rec.AuthorID.Hex() {
		return true
	}
	return middleware.Allow(claims, models.RoleAdmin)
}

// Update edits a recipe. A changed title regenerates the slug.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	rec, err := h.recipes.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Recipe not found")
			return
		}
		h.log.Error("recipe fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to update recipe")
		return
	}
	if !h.canEdit(r, rec) {
		response.Error(w, http.StatusForbidden, "Not authorized to edit this recipe")
		return
	}

	var input models.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "missing or malformed fields")
		return
	}

	fields := bson.M{
		"title":        input.Title,
		"description":  input.Description,
		"ingredients":  input.Ingredients,
		"instructions": input.Instructions,
		"prep_time":    input.PrepTime,
		"cook_time":    input.CookTime,
		"servings":     input.Servings,
		"difficulty":   input.Difficulty,
		"cuisine":      input.Cuisine,
		"category":     input.Category,
		"meal_type":    input.MealType,
		"images":       input.Images,
		"updated_at":   time.Now().UTC(),
	}
	if input.Title != rec.Title {
		s, err := slug.Unique(r.Context(), slug.Make(input.Title), id, h.recipes.SlugExists)
		if err != nil {
			h.log.Error("slug check failed", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "Failed to update recipe")
			return
		}
		fields["slug"] = s
	}

	updated, err := h.recipes.Update(r.Context(), id, fields)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			response.Error(w, http.StatusConflict, "A recipe with this title already exists")
			return
		}
		h.log.Error("recipe update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to update recipe")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "recipe": updated})
}

// Delete removes a recipe.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	rec, err := h.recipes.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Recipe not found")
			return
		}
		h.log.Error("recipe fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to delete recipe")
		return
	}
	if !h.canEdit(r, rec) {
		response.Error(w, http.StatusForbidden, "Not authorized to delete this recipe")
		return
	}

	if err := h.recipes.Delete(r.Context(), id); err != nil {
		h.log.Error("recipe delete failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to delete recipe")
		return
	}
	response.OK(w, "Recipe deleted successfully")
}

// Rate records the caller's vote and returns the fresh aggregate.
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RecipeID == "" {
		response.Error(w, http.StatusBadRequest, "recipe id is required")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	recipeID, err := primitive.ObjectIDFromHex(req.RecipeID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	summary, err := h.ratings.Submit(r.Context(), userID, recipeID, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, rating.ErrInvalidValue):
			response.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, rating.ErrRecipeNotFound):
			response.Error(w, http.StatusNotFound, "Recipe not found")
		default:
			h.log.Error("rating submit failed", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "Failed to submit rating")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "rating": summary})
}

// MyRating returns the caller's existing vote for ?recipeId=, zero if none.
func (h *Handler) MyRating(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	recipeID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("recipeId"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	value, err := h.ratings.UserRating(r.Context(), userID, recipeID)
	if err != nil {
		h.log.Error("rating fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch rating")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "value": value})
}

// ListFavorites returns the caller's favorites with the recipes resolved.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	page, limit := pageParams(r)
	favorites, total, err := h.favorites.ListByUser(r.Context(), userID, page, limit)
	if err != nil {
		h.log.Error("favorites list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch favorites")
		return
	}
	for i := range favorites {
		rec, err := h.recipes.GetByID(r.Context(), favorites[i].RecipeID)
		if err == nil {
			favorites[i].Recipe = rec
		}
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"favorites":  favorites,
		"pagination": models.NewPagination(total, page, limit),
	})
}

// AddFavorite saves a recipe and bumps its favorites counter.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	recipeID, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	if _, err := h.recipes.GetByID(r.Context(), recipeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Recipe not found")
			return
		}
		h.log.Error("recipe fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to add favorite")
		return
	}

	if err := h.favorites.Add(r.Context(), userID, recipeID); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			response.Error(w, http.StatusConflict, "Recipe already in favorites")
			return
		}
		h.log.Error("favorite add failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to add favorite")
		return
	}
	if err := h.recipes.IncFavorites(r.Context(), recipeID, 1); err != nil {
		h.log.Warn("favorites counter failed", zap.Error(err))
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{"success": true, "message": "Recipe added to favorites"})
}

// CheckFavorite reports whether the caller has favorited the recipe.
func (h *Handler) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	recipeID, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	exists, err := h.favorites.Exists(r.Context(), userID, recipeID)
	if err != nil {
		h.log.Error("favorite check failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to check favorite")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "favorited": exists})
}

// RemoveFavorite unsaves a recipe and decrements its counter.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	recipeID, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	if err := h.favorites.Remove(r.Context(), userID, recipeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Favorite not found")
			return
		}
		h.log.Error("favorite remove failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to remove favorite")
		return
	}
	if err := h.recipes.IncFavorites(r.Context(), recipeID, -1); err != nil {
		h.log.Warn("favorites counter failed", zap.Error(err))
	}

	response.OK(w, "Recipe removed from favorites")
}
