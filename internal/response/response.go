package response

import (
	"encoding/json"
	"net/http"
)

// envelope is the body shape every endpoint returns.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope with a human-readable message.
func OK(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

// Error writes a failure envelope with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, envelope{Success: false, Message: message})
}
