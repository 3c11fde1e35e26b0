package handler

import (
	"net/http"

	"github.com/AlexanderKamenka/QuickLine-back/internal/application/identity"
	"github.com/AlexanderKamenka/QuickLine-back/internal/transport/http/middleware"
)

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
	svc identity.Service
}

func NewUserHandler(svc identity.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.svc.GetByPhone(r.Context(), claims.Phone)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u.Profile())
}
