package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tastybites/backend/internal/auth"
	"github.com/tastybites/backend/internal/models"
	"github.com/tastybites/backend/internal/response"
	"github.com/tastybites/backend/internal/store"
)

// recentN is how many rows each dashboard panel shows.
const recentN = 5

// Handler serves the admin dashboard routes. All of them sit behind
// RequireRole(admin) in the router.
type Handler struct {
	users    *store.UserStore
	recipes  *store.RecipeStore
	blogs    *store.BlogStore
	comments *store.CommentStore
	validate *validator.Validate
	log      *zap.Logger
}

func NewHandler(users *store.UserStore, recipes *store.RecipeStore, blogs *store.BlogStore, comments *store.CommentStore, log *zap.Logger) *Handler {
	return &Handler{
		users:    users,
		recipes:  recipes,
		blogs:    blogs,
		comments: comments,
		validate: validator.New(),
		log:      log,
	}
}

// Stats returns the dashboard counters plus recent-activity panels.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userCount, err := h.users.Count(ctx)
	if err != nil {
		h.log.Error("user count failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	recipeCount, err := h.recipes.Count(ctx)
	if err != nil {
		h.log.Error("recipe count failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	blogCount, err := h.blogs.Count(ctx)
	if err != nil {
		h.log.Error("blog count failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	commentCount, err := h.comments.Count(ctx)
	if err != nil {
		h.log.Error("comment count failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	recentUsers, err := h.users.Recent(ctx, recentN)
	if err != nil {
		h.log.Error("recent users failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	popularRecipes, err := h.recipes.MostViewed(ctx, recentN)
	if err != nil {
		h.log.Error("popular recipes failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	recentComments, err := h.comments.Recent(ctx, recentN)
	if err != nil {
		h.log.Error("recent comments failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats": map[string]interface{}{
			"users":    userCount,
			"recipes":  recipeCount,
			"blogs":    blogCount,
			"comments": commentCount,
		},
		"recent_users":    recentUsers,
		"popular_recipes": popularRecipes,
		"recent_comments": recentComments,
	})
}

// ListUsers returns a paginated user listing with optional ?search=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.ParseInt(q.Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := h.users.List(r.Context(), q.Get("search"), page, limit)
	if err != nil {
		h.log.Error("user list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"users":      users,
		"pagination": models.NewPagination(total, page, limit),
	})
}

// GetUser returns one account by id.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error("user fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

// UpdateUser edits an account's name and role.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var input struct {
		Name string `json:"name" validate:"omitempty,max=50"`
		Role string `json:"role" validate:"omitempty,oneof=user editor admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "missing or malformed fields")
		return
	}

	fields := bson.M{}
	if input.Name != "" {
		fields["name"] = input.Name
	}
	if input.Role != "" {
		fields["role"] = input.Role
	}
	if len(fields) == 0 {
		response.Error(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if err := h.users.Update(r.Context(), id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error("user update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusNotFound, "User not found")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	claims := auth.ClaimsFromContext(r.Context())
	if claims != nil && claims.UserID == id.Hex() {
		response.Error(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error("user delete failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	response.OK(w, "User deleted successfully")
}

// FeaturedRecipes lists the currently featured recipes.
func (h *Handler) FeaturedRecipes(w http.ResponseWriter, r *http.Request) {
	t := true
	recipes, _, err := h.recipes.List(r.Context(), models.RecipeFilter{Featured: &t}, 1, 100)
	if err != nil {
		h.log.Error("featured recipes failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch recipes")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "recipes": recipes})
}

// SetRecipeFeatured toggles the featured flag on a recipe.
func (h *Handler) SetRecipeFeatured(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	var input struct {
		Featured bool `json:"featured"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.recipes.SetFeatured(r.Context(), id, input.Featured)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Recipe not found")
			return
		}
		h.log.Error("featured toggle failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to update recipe")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "recipe": rec})
}
