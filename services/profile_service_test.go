package services

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/monument-scanner/auth"
	"github.com/upb/monument-scanner/models"
	"github.com/upb/monument-scanner/repositories"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func claimsFor(sub, email, role string) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub},
		Email:            email,
		Role:             role,
	}
}

func TestProfileService_WithoutRepository(t *testing.T) {
	svc := NewProfileService(nil, zap.NewNop())
	ctx := context.Background()

	first, err := svc.ResolveUser(ctx, claimsFor("user-1", "ana@example.com", "authenticated"))
	require.NoError(t, err)
	second, err := svc.ResolveUser(ctx, claimsFor("user-1", "ana@example.com", "authenticated"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "profile id must be stable per subject")
	assert.Equal(t, "user-1", first.Subject)
	assert.Equal(t, models.RoleExplorer, first.Role)

	curator, err := svc.ResolveUser(ctx, claimsFor("user-2", "", "curator"))
	require.NoError(t, err)
	assert.True(t, curator.IsCurator())
	assert.NotEqual(t, first.ID, curator.ID)
}

func TestProfileService_RejectsMissingSubject(t *testing.T) {
	svc := NewProfileService(nil, zap.NewNop())

	_, err := svc.ResolveUser(context.Background(), claimsFor("", "", ""))
	assert.True(t, IsUnauthorizedError(err))

	_, err = svc.ResolveUser(context.Background(), nil)
	assert.True(t, IsUnauthorizedError(err))
}

func TestProfileService_ExistingProfile(t *testing.T) {
	users := new(MockUserRepository)
	txMgr := new(MockTransactionManager)
	svc := NewProfileService(&repositories.Repositories{Users: users, Transactions: txMgr}, zap.NewNop())

	existing := models.NewUser("user-1", "ana@example.com", models.RoleCurator)
	users.On("GetBySubject", mock.Anything, "user-1").Return(existing, nil)

	user, err := svc.ResolveUser(context.Background(), claimsFor("user-1", "ana@example.com", ""))
	require.NoError(t, err)
	assert.Same(t, existing, user)
	txMgr.AssertNotCalled(t, "Begin", mock.Anything)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProfileService_CreatesOnFirstSignIn(t *testing.T) {
	users := new(MockUserRepository)
	txMgr := new(MockTransactionManager)
	tx, txCtx := newMockTx()
	svc := NewProfileService(&repositories.Repositories{Users: users, Transactions: txMgr}, zap.NewNop())

	created := models.NewUser("user-9", "new@example.com", models.RoleExplorer)

	users.On("GetBySubject", mock.Anything, "user-9").Return(nil, NewDomainError(ErrorTypeNotFound, "profile not found", nil)).Once()
	txMgr.On("Begin", mock.Anything).Return(tx, nil)
	users.On("Create", txCtx, mock.MatchedBy(func(u *models.User) bool {
		return u.Subject == "user-9" && u.Email == "new@example.com"
	})).Return(nil)
	users.On("GetBySubject", txCtx, "user-9").Return(created, nil).Once()
	tx.On("Commit").Return(nil)

	user, err := svc.ResolveUser(context.Background(), claimsFor("user-9", "new@example.com", ""))
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.True(t, tx.committed)
	users.AssertExpectations(t)
}

func TestProfileService_LookupFailurePropagates(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewProfileService(&repositories.Repositories{Users: users, Transactions: new(MockTransactionManager)}, zap.NewNop())

	users.On("GetBySubject", mock.Anything, "user-1").
		Return(nil, WrapInternal("failed to get profile", errors.New("connection refused")))

	_, err := svc.ResolveUser(context.Background(), claimsFor("user-1", "", ""))
	assert.True(t, IsInternalError(err))
}
