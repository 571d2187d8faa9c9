package blog

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
	"github.com/tastybites/backend/internal/response"
	"github.com/tastybites/backend/internal/slug"
	"github.com/tastybites/backend/internal/store"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// Handler serves the blog and comment routes.
type Handler struct {
	blogs    *store.BlogStore
	comments *store.CommentStore
	users    *store.UserStore
	validate *validator.Validate
	log      *zap.Logger
}

func NewHandler(blogs *store.BlogStore, comments *store.CommentStore, users *store.UserStore, log *zap.Logger) *Handler {
	return &Handler{
		blogs:    blogs,
		comments: comments,
		users:    users,
		validate: validator.New(),
		log:      log,
	}
}

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

func (h *Handler) attachAuthors(r *http.Request, blogs []models.Blog) {
	ids := make([]primitive.ObjectID, 0, len(blogs))
	for _, b := range blogs {
		ids = append(ids, b.AuthorID)
	}
	refs, err := h.users.AuthorRefs(r.Context(), ids)
	if err != nil {
		h.log.Warn("author lookup failed", zap.Error(err))
		return
	}
	for i := range blogs {
		if ref, ok := refs[blogs[i].AuthorID]; ok {
			blogs[i].Author = &ref
		}
	}
}

// List returns blog posts, published only unless ?status= asks otherwise.
// Draft listings require an authenticated editor or admin.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.BlogFilter{
		Status:   models.BlogPublished,
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
	}
	if status := q.Get("status"); status != "" && status != models.BlogPublished {
		claims := auth.ClaimsFromContext(r.Context())
		if !middleware.Allow(claims, models.RoleEditor) {
			response.Error(w, http.StatusForbidden, "editor access required")
			return
		}
		filter.Status = status
	}
	if q.Get("featured") == "true" {
		t := true
		filter.Featured = &t
	}

	page, limit := pageParams(r)
	blogs, total, err := h.blogs.List(r.Context(), filter, page, limit)
	if err != nil {
		h.log.Error("blog list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch blog posts")
		return
	}
	h.attachAuthors(r, blogs)

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"blogs":      blogs,
		"pagination": models.NewPagination(total, page, limit),
	})
}

// Featured returns published featured posts.
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	t := true
	blogs, _, err := h.blogs.List(r.Context(), models.BlogFilter{Status: models.BlogPublished, Featured: &t}, 1, defaultLimit)
	if err != nil {
		h.log.Error("featured blogs failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch blog posts")
		return
	}
	h.attachAuthors(r, blogs)
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "blogs": blogs})
}

// Create inserts a post authored by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	authorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var input models.BlogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "missing or malformed fields")
		return
	}

	s, err := slug.Unique(r.Context(), slug.Make(input.Title), primitive.NilObjectID, h.blogs.SlugExists)
	if err != nil {
		h.log.Error("slug check failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to create blog post")
		return
	}

	b := &models.Blog{
		Title:      input.Title,
		Slug:       s,
		Content:    input.Content,
		Summary:    input.Summary,
		CoverImage: input.CoverImage,
		AuthorID:   authorID,
		Tags:       input.Tags,
		Category:   input.Category,
		Status:     input.Status,
		Featured:   input.Featured,
		ReadTime:   input.ReadTime,
	}
	if err := h.blogs.Insert(r.Context(), b); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			response.Error(w, http.StatusConflict, "A blog post with this title already exists")
			return
		}
		h.log.Error("blog insert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to create blog post")
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{"success": true, "blog": b})
}

// GetBySlug returns one published post and counts the view.
func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	b, err := h.blogs.GetPublishedBySlugAndView(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Blog post not found")
			return
		}
		h.log.Error("blog fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch blog post")
		return
	}

	refs, err := h.users.AuthorRefs(r.Context(), []primitive.ObjectID{b.AuthorID})
	if err == nil {
		if ref, ok := refs[b.AuthorID]; ok {
			b.Author = &ref
		}
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "blog": b})
}

func (h *Handler) canEdit(r *http.Request, authorID primitive.ObjectID) bool {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		return false
	}
	if claims.UserID == authorID.Hex() {
		return true
	}
	return middleware.Allow(claims, models.RoleAdmin)
}

// Update edits a post. A changed title regenerates the slug.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	b, err := h.blogs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Blog post not found")
			return
		}
		h.log.Error("blog fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to update blog post")
		return
	}
	if !h.canEdit(r, b.AuthorID) {
		response.Error(w, http.StatusForbidden, "Not authorized to edit this blog post")
		return
	}

	var input models.BlogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "missing or malformed fields")
		return
	}

	fields := bson.M{
		"title":       input.Title,
		"content":     input.Content,
		"summary":     input.Summary,
		"cover_image": input.CoverImage,
		"tags":        input.Tags,
		"category":    input.Category,
		"featured":    input.Featured,
		"read_time":   input.ReadTime,
		"updated_at":  time.Now().UTC(),
	}
	if input.Status != "" {
		fields["status"] = input.Status
	}
	if input.Title != b.Title {
		s, err := slug.Unique(r.Context(), slug.Make(input.Title), id, h.blogs.SlugExists)
		if err != nil {
			h.log.Error("slug check failed", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "Failed to update blog post")
			return
		}
		fields["slug"] = s
	}

	updated, err := h.blogs.Update(r.Context(), id, fields)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			response.Error(w, http.StatusConflict, "A blog post with this title already exists")
			return
		}
		h.log.Error("blog update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to update blog post")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "blog": updated})
}

// Delete removes a post.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	b, err := h.blogs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Blog post not found")
			return
		}
		h.log.Error("blog fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to delete blog post")
		return
	}
	if !h.canEdit(r, b.AuthorID) {
		response.Error(w, http.StatusForbidden, "Not authorized to delete this blog post")
		return
	}

	if err := h.blogs.Delete(r.Context(), id); err != nil {
		h.log.Error("blog delete failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to delete blog post")
		return
	}
	response.OK(w, "Blog post deleted successfully")
}

// CreateComment posts a comment on exactly one of a recipe or a blog post.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var input models.CommentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "missing or malformed fields")
		return
	}
	if (input.RecipeID == "") == (input.BlogID == "") {
		response.Error(w, http.StatusBadRequest, "comment must target exactly one recipe or blog post")
		return
	}

	c := &models.Comment{Content: input.Content, UserID: userID}
	if input.RecipeID != "" {
		id, err := primitive.ObjectIDFromHex(input.RecipeID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "invalid recipe id")
			return
		}
		c.RecipeID = &id
	}
	if input.BlogID != "" {
		id, err := primitive.ObjectIDFromHex(input.BlogID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "invalid blog id")
			return
		}
		c.BlogID = &id
	}
	if input.ParentID != "" {
		id, err := primitive.ObjectIDFromHex(input.ParentID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "invalid parent id")
			return
		}
		c.ParentID = &id
	}

	if err := h.comments.Insert(r.Context(), c); err != nil {
		h.log.Error("comment insert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to post comment")
		return
	}
	response.JSON(w, http.StatusCreated, map[string]interface{}{"success": true, "comment": c})
}

// ListComments returns comments for ?recipeId= or ?blogId=, oldest first.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		comments []models.Comment
		err      error
	)
	switch {
	case q.Get("recipeId") != "":
		id, perr := primitive.ObjectIDFromHex(q.Get("recipeId"))
		if perr != nil {
			response.Error(w, http.StatusBadRequest, "invalid recipe id")
			return
		}
		comments, err = h.comments.ListByRecipe(r.Context(), id)
	case q.Get("blogId") != "":
		id, perr := primitive.ObjectIDFromHex(q.Get("blogId"))
		if perr != nil {
			response.Error(w, http.StatusBadRequest, "invalid blog id")
			return
		}
		comments, err = h.comments.ListByBlog(r.Context(), id)
	default:
		response.Error(w, http.StatusBadRequest, "recipeId or blogId is required")
		return
	}
	if err != nil {
		h.log.Error("comment list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch comments")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	refs, rerr := h.users.AuthorRefs(r.Context(), ids)
	if rerr == nil {
		for i := range comments {
			if ref, ok := refs[comments[i].UserID]; ok {
				comments[i].User = &ref
			}
		}
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "comments": comments})
}

// UpdateComment edits a comment's content; owner or admin only.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	c, err := h.comments.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Comment not found")
			return
		}
		h.log.Error("comment fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to update comment")
		return
	}
	if !h.canEdit(r, c.UserID) {
		response.Error(w, http.StatusForbidden, "Not authorized to edit this comment")
		return
	}

	var input struct {
		Content string `json:"content" validate:"required,max=1000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "missing or malformed fields")
		return
	}

	updated, err := h.comments.UpdateContent(r.Context(), id, input.Content)
	if err != nil {
		h.log.Error("comment update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to update comment")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "comment": updated})
}

// DeleteComment removes a comment; owner or admin only.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	c, err := h.comments.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Comment not found")
			return
		}
		h.log.Error("comment fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to delete comment")
		return
	}
	if !h.canEdit(r, c.UserID) {
		response.Error(w, http.StatusForbidden, "Not authorized to delete this comment")
		return
	}

	if err := h.comments.Delete(r.Context(), id); err != nil {
		h.log.Error("comment delete failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to delete comment")
		return
	}
	response.OK(w, "Comment deleted successfully")
}
