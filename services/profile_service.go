package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/monument-scanner/auth"
	"github.com/upb/monument-scanner/models"
	"github.com/upb/monument-scanner/repositories"
	"go.uber.org/zap"
)

// ProfileService resolves validated session claims to user profiles.
// Without a repository, profiles are derived from the claims alone.
type ProfileService struct {
	users  repositories.UserRepository
	txMgr  repositories.TransactionManager
	logger *zap.Logger
}

// NewProfileService creates a profile service. repos may be nil.
func NewProfileService(repos *repositories.Repositories, logger *zap.Logger) *ProfileService {
	s := &ProfileService{logger: logger}
	if repos != nil {
		s.users = repos.Users
		s.txMgr = repos.Transactions
	}
	return s
}

// ResolveUser returns the profile for claims, creating it on first sign-in
func (s *ProfileService) ResolveUser(ctx context.Context, claims *auth.Claims) (*models.User, error) {
	if claims == nil || claims.Subject == "" {
		return nil, ErrUnauthorized
	}

	if s.users == nil {
		return profileFromClaims(claims), nil
	}

	user, err := s.users.GetBySubject(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !IsNotFoundError(err) {
		return nil, err
	}

	return WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.User, error) {
		if err := s.users.Create(ctx, profileFromClaims(claims)); err != nil {
			return nil, err
		}
		// re-read: a concurrent first sign-in may have won the insert
		user, err := s.users.GetBySubject(ctx, claims.Subject)
		if err != nil {
			return nil, err
		}
		s.logger.Info("profile created on first sign-in",
			zap.String("subject", claims.Subject),
			zap.String("id", user.ID.String()))
		return user, nil
	})
}

// profileFromClaims builds a profile whose id is stable for the subject
func profileFromClaims(claims *auth.Claims) *models.User {
	role := models.RoleExplorer
	if claims.Role == string(models.RoleCurator) {
		role = models.RoleCurator
	}

	now := time.Now()
	return &models.User{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte("profile:"+claims.Subject)),
		Subject:     claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Email,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
