package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/AlexanderKamenka/QuickLine-back/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	args := m.Called(ctx, phoneNumber)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

// --- FindOrCreateByPhone ---

func TestFindOrCreate_ExistingUser(t *testing.T) {
	us := &mockUserStore{}
	existing := &domain.User{UserID: "u1", Username: "alice", Phone: "+15551234567"}
	us.On("GetByPhone", mock.Anything, "+15551234567").Return(existing, nil)

	svc := NewService(us)
	u, err := svc.FindOrCreateByPhone(context.Background(), "+15551234567", "ignored")

	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestFindOrCreate_NewUser_WithDisplayName(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByPhone", mock.Anything, "+15551234567").Return(nil, domain.ErrNotFound)
	us.On("GetByUsername", mock.Anything, "Alice").Return(nil, domain.ErrNotFound)

	var created *domain.User
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)

	svc := NewService(us)
	u, err := svc.FindOrCreateByPhone(context.Background(), "+15551234567", "  Alice  ")

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Alice", u.Username)
	assert.Equal(t, "+15551234567", u.Phone)
	assert.Equal(t, domain.RoleClient, u.Role)
	assert.NotEmpty(t, u.UserID)
	assert.True(t, u.Enable)
}

func TestFindOrCreate_DisplayNameTaken_Conflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByPhone", mock.Anything, "+15551234567").Return(nil, domain.ErrNotFound)
	us.On("GetByUsername", mock.Anything, "Alice").Return(&domain.User{UserID: "u9"}, nil)

	svc := NewService(us)
	_, err := svc.FindOrCreateByPhone(context.Background(), "+15551234567", "Alice")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestFindOrCreate_NoName_DerivesUsernameFromPhone(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByPhone", mock.Anything, "+15551234567").Return(nil, domain.ErrNotFound)
	us.On("GetByUsername", mock.Anything, "user_51234567").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	svc := NewService(us)
	u, err := svc.FindOrCreateByPhone(context.Background(), "+15551234567", "")

	require.NoError(t, err)
	assert.Equal(t, "user_51234567", u.Username)
}

func TestFindOrCreate_DerivedUsernameCollision_Increments(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByPhone", mock.Anything, "+15551234567").Return(nil, domain.ErrNotFound)
	us.On("GetByUsername", mock.Anything, "user_51234567").Return(&domain.User{UserID: "a"}, nil)
	us.On("GetByUsername", mock.Anything, "user_51234567_1").Return(&domain.User{UserID: "b"}, nil)
	us.On("GetByUsername", mock.Anything, "user_51234567_2").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	svc := NewService(us)
	u, err := svc.FindOrCreateByPhone(context.Background(), "+15551234567", "")

	require.NoError(t, err)
	assert.Equal(t, "user_51234567_2", u.Username)
}

func TestFindOrCreate_ProbeBudgetExhausted(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByPhone", mock.Anything, "+15551234567").Return(nil, domain.ErrNotFound)
	us.On("GetByUsername", mock.Anything, mock.Anything).Return(&domain.User{UserID: "x"}, nil)

	svc := NewService(us)
	_, err := svc.FindOrCreateByPhone(context.Background(), "+15551234567", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestFindOrCreate_StoreFailurePropagates(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByPhone", mock.Anything, "+15551234567").Return(nil, errors.New("dynamo down"))

	svc := NewService(us)
	_, err := svc.FindOrCreateByPhone(context.Background(), "+15551234567", "Alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

// --- PhoneExists / GetByPhone ---

func TestPhoneExists(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByPhone", mock.Anything, "+1").Return(&domain.User{UserID: "u1"}, nil)
	us.On("GetByPhone", mock.Anything, "+2").Return(nil, domain.ErrNotFound)

	svc := NewService(us)

	ok, err := svc.PhoneExists(context.Background(), "+1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.PhoneExists(context.Background(), "+2")
	require.NoError(t, err)
	assert.False(t, ok)
}
