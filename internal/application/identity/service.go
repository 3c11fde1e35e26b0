package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AlexanderKamenka/QuickLine-back/internal/domain"
	"github.com/AlexanderKamenka/QuickLine-back/internal/pkg/id"
	"github.com/AlexanderKamenka/QuickLine-back/internal/pkg/phone"
)

// maxUsernameProbes bounds the uniqueness-probing loop for derived usernames.
// 50 collisions on one 8-digit suffix means something else is wrong.
const maxUsernameProbes = 50

type Service interface {
	// FindOrCreateByPhone returns the user owning the normalized phone
	// number, creating a client account on first contact.
	FindOrCreateByPhone(ctx context.Context, phoneNumber, displayName string) (*domain.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	PhoneExists(ctx context.Context, phoneNumber string) (bool, error)
}

type userStore interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

type service struct {
	users userStore
}

func NewService(users userStore) Service {
	return &service{users: users}
}

func (s *service) FindOrCreateByPhone(ctx context.Context, phoneNumber, displayName string) (*domain.User, error) {
	u, err := s.users.GetByPhone(ctx, phoneNumber)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by phone: %w", err)
	}

	username, err := s.resolveUsername(ctx, phoneNumber, displayName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u = &domain.User{
		UserID:    id.New(),
		Username:  username,
		Phone:     phoneNumber,
		Role:      domain.RoleClient,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	slog.Info("user created from phone verification", "user_id", u.UserID, "username", u.Username)
	return u, nil
}

func (s *service) GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	return s.users.GetByPhone(ctx, phoneNumber)
}

func (s *service) PhoneExists(ctx context.Context, phoneNumber string) (bool, error) {
	_, err := s.users.GetByPhone(ctx, phoneNumber)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// resolveUsername uses the supplied display name when given and free, or
// derives user_<last 8 digits> and probes with an incrementing suffix until a
// free name is found.
func (s *service) resolveUsername(ctx context.Context, phoneNumber, displayName string) (string, error) {
	if name := strings.TrimSpace(displayName); name != "" {
		taken, err := s.usernameTaken(ctx, name)
		if err != nil {
			return "", err
		}
		if taken {
			return "", fmt.Errorf("username %q already taken: %w", name, domain.ErrConflict)
		}
		return name, nil
	}

	base := "user_" + phone.LastDigits(phoneNumber, 8)
	candidate := base
	for i := 1; i <= maxUsernameProbes; i++ {
		taken, err := s.usernameTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
	return "", fmt.Errorf("no free username derived from %s: %w", base, domain.ErrConflict)
}

func (s *service) usernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("lookup user by username: %w", err)
}
