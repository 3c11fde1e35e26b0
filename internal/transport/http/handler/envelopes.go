package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexanderKamenka/QuickLine-back/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SendEnvelope wraps code-request responses.
type SendEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"` // seconds
}

// VerifyEnvelope wraps code-check responses.
type VerifyEnvelope struct {
	Verified          bool   `json:"verified"`
	Message           string `json:"message,omitempty"`
	Error             string `json:"error,omitempty"`
	RemainingAttempts int    `json:"remaining_attempts,omitempty"`
}

// LoginEnvelope wraps verify-and-login responses.
type LoginEnvelope struct {
	Verified bool            `json:"verified"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
	Token    string          `json:"token,omitempty"`
	User     *domain.Profile `json:"user,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors onto HTTP status codes.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
