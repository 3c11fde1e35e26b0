package http

import (
	"context"

	"github.com/AlexanderKamenka/QuickLine-back/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

// Notifier is the minimal interface the router requires from a delivery channel.
type Notifier interface {
	Send(ctx context.Context, phoneNumber, text string) error
}
