package contact

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tastybites/backend/internal/email"
	"github.com/tastybites/backend/internal/models"
	"github.com/tastybites/backend/internal/response"
	"github.com/tastybites/backend/internal/store"
)

// Handler accepts contact-form submissions. Messages are persisted and
// forwarded to the site inbox.
type Handler struct {
	messages *store.ContactStore
	mailer   email.Mailer
	inbox    string
	validate *validator.Validate
	log      *zap.Logger
}

func NewHandler(messages *store.ContactStore, mailer email.Mailer, inbox string, log *zap.Logger) *Handler {
	return &Handler{
		messages: messages,
		mailer:   mailer,
		inbox:    inbox,
		validate: validator.New(),
		log:      log,
	}
}

// Submit stores the message and emails it to the inbox. The email is
// best effort; persistence is what acknowledges the submission.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "missing or malformed fields")
		return
	}

	msg := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.messages.Insert(r.Context(), msg); err != nil {
		h.log.Error("contact insert failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		subject, body := email.ContactBody(msg.Name, msg.Email, msg.Subject, msg.Message)
		if err := h.mailer.Send(ctx, h.inbox, subject, body); err != nil {
			h.log.Warn("contact forward failed", zap.Int64("message_id", msg.ID), zap.Error(err))
		}
	}()

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Message sent successfully",
		"id":      msg.ID,
	})
}

// List returns the most recent submissions for the admin dashboard.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.List(r.Context(), 50)
	if err != nil {
		h.log.Error("contact list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "messages": messages})
}
