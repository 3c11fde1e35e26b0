package handler

import (
	"encoding/json"
	"net/http"

	"github.com/AlexanderKamenka/QuickLine-back/internal/application/verification"
	"github.com/AlexanderKamenka/QuickLine-back/internal/pkg/validate"
)

// VerificationHandler exposes the phone verification and phone login flow.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

type sendCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

type verifyCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Code        string `json:"code" validate:"required"`
}

type verifyAndLoginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name"`
}

// Send requests a verification code for a phone number.
func (h *VerificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.svc.RequestCode(r.Context(), req.PhoneNumber)
	if err != nil {
		httpError(w, err)
		return
	}
	if !res.Delivered {
		// The code exists and is checkable; only the delivery failed.
		writeJSON(w, http.StatusOK, SendEnvelope{Success: false, Error: res.Message, ExpiresIn: res.ExpiresIn})
		return
	}
	writeJSON(w, http.StatusOK, SendEnvelope{Success: true, Message: res.Message, ExpiresIn: res.ExpiresIn})
}

// Verify checks a candidate code without authenticating.
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	vr := h.svc.CheckCode(r.Context(), req.PhoneNumber, req.Code)
	if !vr.Verified {
		writeJSON(w, http.StatusBadRequest, VerifyEnvelope{Error: vr.Reason, RemainingAttempts: vr.RemainingAttempts})
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{Verified: true, Message: vr.Reason})
}

// VerifyAndLogin checks the code and, on success, resolves the identity and
// returns a signed token.
func (h *VerificationHandler) VerifyAndLogin(w http.ResponseWriter, r *http.Request) {
	var req verifyAndLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.svc.VerifyAndAuthenticate(r.Context(), req.PhoneNumber, req.Code, req.Name)
	if err != nil {
		httpError(w, err)
		return
	}
	if !res.Verified {
		writeJSON(w, http.StatusBadRequest, LoginEnvelope{Error: res.Reason})
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{
		Verified: true,
		Message:  "phone verified and user authenticated",
		Token:    res.Token,
		User:     res.User,
	})
}

// Status reports store statistics for monitoring. Admin only.
func (h *VerificationHandler) Status(w http.ResponseWriter, _ *http.Request) {
	stats := h.svc.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":          "phone verification",
		"active_codes":     stats.ActiveCodes,
		"code_ttl_seconds": int(stats.CodeTTL.Seconds()),
		"cooldown_seconds": int(stats.ResendCooldown.Seconds()),
		"max_attempts":     stats.MaxAttempts,
	})
}
