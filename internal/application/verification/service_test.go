package verification

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/AlexanderKamenka/QuickLine-back/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Send(ctx context.Context, phoneNumber, text string) error {
	return m.Called(ctx, phoneNumber, text).Error(0)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) FindOrCreateByPhone(ctx context.Context, phoneNumber, displayName string) (*domain.User, error) {
	args := m.Called(ctx, phoneNumber, displayName)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, phoneNumber, role string) (string, error) {
	args := m.Called(userID, phoneNumber, role)
	return args.String(0), args.Error(1)
}

// --- builder ---

func newTestService(t *testing.T, nf, fb *mockNotifier, rs *mockResolver, sg *mockSigner) (Service, *Store) {
	t.Helper()
	store := NewStore(StoreConfig{})
	deps := ServiceDeps{Store: store}
	if nf != nil {
		deps.Notifier = nf
	}
	if fb != nil {
		deps.Fallback = fb
	}
	if rs != nil {
		deps.Resolver = rs
	}
	if sg != nil {
		deps.Signer = sg
	}
	return NewService(deps), store
}

var codeRe = regexp.MustCompile(`\d{6}`)

// --- RequestCode ---

func TestRequestCode_HappyPath(t *testing.T) {
	nf := &mockNotifier{}
	nf.On("Send", mock.Anything, "+15551234567", mock.MatchedBy(func(text string) bool {
		return codeRe.MatchString(text)
	})).Return(nil)

	svc, _ := newTestService(t, nf, nil, nil, nil)
	// Raw formatting is normalized before the store and the notifier see it.
	res, err := svc.RequestCode(context.Background(), "+1 (555) 123-4567")

	require.NoError(t, err)
	assert.True(t, res.Delivered)
	assert.Equal(t, 300, res.ExpiresIn)
	nf.AssertExpectations(t)
}

func TestRequestCode_RateLimited(t *testing.T) {
	nf := &mockNotifier{}
	nf.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	svc, _ := newTestService(t, nf, nil, nil, nil)
	_, err := svc.RequestCode(context.Background(), "+15551234567")
	require.NoError(t, err)

	_, err = svc.RequestCode(context.Background(), "15551234567") // same number, different formatting
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	nf.AssertExpectations(t)
}

func TestRequestCode_DeliveryFailure_FallsBackAndCodeStaysCheckable(t *testing.T) {
	nf := &mockNotifier{}
	nf.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("sns down"))

	var fallbackText string
	fb := &mockNotifier{}
	fb.On("Send", mock.Anything, "+15551234567", mock.Anything).
		Run(func(args mock.Arguments) { fallbackText = args.String(2) }).
		Return(nil)

	svc, _ := newTestService(t, nf, fb, nil, nil)
	res, err := svc.RequestCode(context.Background(), "+15551234567")

	require.NoError(t, err)
	assert.False(t, res.Delivered)
	assert.Contains(t, res.Message, "remains valid")
	fb.AssertExpectations(t)

	// The code routed to the fallback channel still verifies.
	code := codeRe.FindString(fallbackText)
	require.NotEmpty(t, code)
	vr := svc.CheckCode(context.Background(), "+15551234567", code)
	assert.True(t, vr.Verified)
}

// --- CheckCode ---

func TestCheckCode_OutcomeMapping(t *testing.T) {
	nf := &mockNotifier{}
	nf.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc, _ := newTestService(t, nf, nil, nil, nil)
	ctx := context.Background()

	vr := svc.CheckCode(ctx, "+15551234567", "bad-00")
	assert.False(t, vr.Verified)
	assert.Equal(t, StatusNotFound, vr.Status)

	_, err := svc.RequestCode(ctx, "+15551234567")
	require.NoError(t, err)

	vr = svc.CheckCode(ctx, "+15551234567", "bad-01")
	assert.False(t, vr.Verified)
	assert.Equal(t, StatusMismatch, vr.Status)
	assert.Equal(t, 2, vr.RemainingAttempts)
	assert.Contains(t, vr.Reason, "2 attempts remaining")
}

// --- VerifyAndAuthenticate ---

func TestVerifyAndAuthenticate_HappyPath(t *testing.T) {
	rs := &mockResolver{}
	sg := &mockSigner{}
	user := &domain.User{UserID: "u1", Username: "user_51234567", Phone: "+15551234567", Role: domain.RoleClient}
	rs.On("FindOrCreateByPhone", mock.Anything, "+15551234567", "").Return(user, nil)
	sg.On("Sign", "u1", "+15551234567", domain.RoleClient).Return("signed-token", nil)

	svc, store := newTestService(t, nil, nil, rs, sg)
	issued, err := store.Issue("+15551234567")
	require.NoError(t, err)

	// Differently formatted number, same canonical key.
	res, err := svc.VerifyAndAuthenticate(context.Background(), "1 555 123-4567", issued.Code, "")

	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, "signed-token", res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, "user_51234567", res.User.Username)
	assert.Equal(t, "", res.User.Email)
	rs.AssertExpectations(t)
	sg.AssertExpectations(t)
}

func TestVerifyAndAuthenticate_WrongCode_NoResolverCall(t *testing.T) {
	rs := &mockResolver{}
	svc, store := newTestService(t, nil, nil, rs, nil)
	_, err := store.Issue("+15551234567")
	require.NoError(t, err)

	res, err := svc.VerifyAndAuthenticate(context.Background(), "+15551234567", "bad-01", "Alice")

	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Empty(t, res.Token)
	rs.AssertNotCalled(t, "FindOrCreateByPhone", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyAndAuthenticate_ResolverFailure_ConsumesCode(t *testing.T) {
	rs := &mockResolver{}
	rs.On("FindOrCreateByPhone", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrConflict)

	svc, store := newTestService(t, nil, nil, rs, nil)
	issued, err := store.Issue("+15551234567")
	require.NoError(t, err)

	_, err = svc.VerifyAndAuthenticate(context.Background(), "+15551234567", issued.Code, "Taken Name")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// The code was consumed by the successful check and is not restored.
	vr := svc.CheckCode(context.Background(), "+15551234567", issued.Code)
	assert.Equal(t, StatusNotFound, vr.Status)
}

func TestVerifyAndAuthenticate_SignerFailure(t *testing.T) {
	rs := &mockResolver{}
	sg := &mockSigner{}
	user := &domain.User{UserID: "u1", Phone: "+15551234567", Role: domain.RoleClient}
	rs.On("FindOrCreateByPhone", mock.Anything, mock.Anything, mock.Anything).Return(user, nil)
	sg.On("Sign", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("no key"))

	svc, store := newTestService(t, nil, nil, rs, sg)
	issued, err := store.Issue("+15551234567")
	require.NoError(t, err)

	_, err = svc.VerifyAndAuthenticate(context.Background(), "+15551234567", issued.Code, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestStats_ReflectsStore(t *testing.T) {
	svc, store := newTestService(t, nil, nil, nil, nil)
	_, err := store.Issue("+15551234567")
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Stats().ActiveCodes)
}
