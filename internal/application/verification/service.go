package verification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AlexanderKamenka/QuickLine-back/internal/domain"
	"github.com/AlexanderKamenka/QuickLine-back/internal/pkg/phone"
)

// Notifier delivers a verification message to a phone number.
type Notifier interface {
	Send(ctx context.Context, phoneNumber, text string) error
}

// IdentityResolver finds or creates the user a verified phone number belongs to.
type IdentityResolver interface {
	FindOrCreateByPhone(ctx context.Context, phoneNumber, displayName string) (*domain.User, error)
}

// TokenSigner mints the session credential for a resolved identity.
type TokenSigner interface {
	Sign(userID, phoneNumber, role string) (string, error)
}

// SendResult reports the outcome of a code request. Delivered is false when
// the primary notifier failed; the code is then routed to the fallback
// notifier and stays valid and checkable either way.
type SendResult struct {
	Delivered bool
	Message   string
	ExpiresIn int // seconds
}

// VerifyResult is the caller-facing outcome of a code check.
type VerifyResult struct {
	Verified          bool
	Status            CheckStatus
	Reason            string
	RemainingAttempts int
}

// AuthResult is the outcome of the combined verify-then-authenticate flow.
type AuthResult struct {
	Verified bool
	Reason   string
	Token    string
	User     *domain.Profile
}

type Service interface {
	RequestCode(ctx context.Context, rawPhone string) (*SendResult, error)
	CheckCode(ctx context.Context, rawPhone, candidate string) *VerifyResult
	VerifyAndAuthenticate(ctx context.Context, rawPhone, candidate, displayName string) (*AuthResult, error)
	Stats() Stats
}

type ServiceDeps struct {
	Store    *Store
	Notifier Notifier
	Fallback Notifier // diagnostic channel used when the primary delivery fails
	Resolver IdentityResolver
	Signer   TokenSigner
}

type service struct {
	store    *Store
	notifier Notifier
	fallback Notifier
	resolver IdentityResolver
	signer   TokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		store:    deps.Store,
		notifier: deps.Notifier,
		fallback: deps.Fallback,
		resolver: deps.Resolver,
		signer:   deps.Signer,
	}
}

func (s *service) RequestCode(ctx context.Context, rawPhone string) (*SendResult, error) {
	normalized := phone.Normalize(rawPhone)

	issued, err := s.store.Issue(normalized)
	if err != nil {
		return nil, err
	}
	expiresIn := int(issued.ExpiresIn.Seconds())

	text := fmt.Sprintf(
		"Your QuickLine verification code: %s\n\nThe code is valid for %d minutes. If you did not request it, ignore this message.",
		issued.Code, int(issued.ExpiresIn.Minutes()),
	)

	if err := s.notifier.Send(ctx, normalized, text); err != nil {
		slog.Error("verification code delivery failed", "phone", normalized, "err", err)
		if s.fallback != nil {
			if fbErr := s.fallback.Send(ctx, normalized, text); fbErr != nil {
				slog.Error("fallback delivery failed", "phone", normalized, "err", fbErr)
			}
		}
		return &SendResult{
			Delivered: false,
			Message:   "failed to deliver verification code; it remains valid and can be obtained from the operator console",
			ExpiresIn: expiresIn,
		}, nil
	}

	slog.Info("verification code sent", "phone", normalized, "expires_in", expiresIn)
	return &SendResult{Delivered: true, Message: "verification code sent", ExpiresIn: expiresIn}, nil
}

func (s *service) CheckCode(_ context.Context, rawPhone, candidate string) *VerifyResult {
	normalized := phone.Normalize(rawPhone)
	res := s.store.Check(normalized, candidate)

	vr := &VerifyResult{Status: res.Status, RemainingAttempts: res.RemainingAttempts}
	switch res.Status {
	case StatusVerified:
		vr.Verified = true
		vr.Reason = "phone number verified"
	case StatusNotFound:
		vr.Reason = "no verification code found, request a new code"
	case StatusExpired:
		vr.Reason = "verification code has expired, request a new code"
	case StatusTooManyAttempts:
		vr.Reason = "too many incorrect attempts, request a new code"
	case StatusMismatch:
		vr.Reason = fmt.Sprintf("invalid verification code, %d attempts remaining", res.RemainingAttempts)
	}
	if !vr.Verified {
		slog.Info("verification check failed", "phone", normalized, "reason", vr.Reason)
	}
	return vr
}

// VerifyAndAuthenticate consumes the verification code and, on success,
// resolves (or creates) the identity for the phone number and mints a token.
// The code is not restored if identity resolution or signing fails; the user
// must restart the flow with a fresh code.
func (s *service) VerifyAndAuthenticate(ctx context.Context, rawPhone, candidate, displayName string) (*AuthResult, error) {
	vr := s.CheckCode(ctx, rawPhone, candidate)
	if !vr.Verified {
		return &AuthResult{Verified: false, Reason: vr.Reason}, nil
	}

	normalized := phone.Normalize(rawPhone)
	user, err := s.resolver.FindOrCreateByPhone(ctx, normalized, displayName)
	if err != nil {
		slog.Error("identity resolution failed after verification", "phone", normalized, "err", err)
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	token, err := s.signer.Sign(user.UserID, user.Phone, user.Role)
	if err != nil {
		slog.Error("token signing failed", "user_id", user.UserID, "err", err)
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	profile := user.Profile()
	slog.Info("phone authenticated", "user_id", user.UserID, "username", user.Username)
	return &AuthResult{Verified: true, Token: token, User: &profile}, nil
}

func (s *service) Stats() Stats {
	return s.store.Snapshot()
}
