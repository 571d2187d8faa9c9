package upload

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tastybites/backend/internal/response"
	"github.com/tastybites/backend/internal/store"
)

// maxUploadBytes caps image uploads at 5 MB.
const maxUploadBytes = 5 << 20

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Handler stores and serves uploaded images.
type Handler struct {
	media *store.MediaStore
	log   *zap.Logger
}

func NewHandler(media *store.MediaStore, log *zap.Logger) *Handler {
	return &Handler{media: media, log: log}
}

// Upload accepts a multipart "file" field and returns the stored key.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.Error(w, http.StatusBadRequest, "file too large or malformed upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error("upload read failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		response.Error(w, http.StatusBadRequest, "only jpeg, png and webp images are allowed")
		return
	}

	key := uuid.NewString() + ext
	if err := h.media.Put(r.Context(), key, data, contentType); err != nil {
		h.log.Error("upload store failed", zap.String("filename", header.Filename), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"key":     key,
		"url":     "/uploads/" + key,
	})
}

// Serve streams a stored image back to the client.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	// Object keys are flat uuid names; reject anything path-like.
	if key == "" || strings.Contains(key, "/") || path.Clean(key) != key {
		response.Error(w, http.StatusBadRequest, "invalid object key")
		return
	}

	data, contentType, err := h.media.Get(r.Context(), key)
	if err != nil {
		response.Error(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
