package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/monument-scanner/models"
	"github.com/upb/monument-scanner/repositories"
	"github.com/upb/monument-scanner/services"
	"go.uber.org/zap"
)

// UserRepository implements repositories.UserRepository on the profiles table
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a profile. A concurrent insert for the same subject is
// ignored so first sign-in is safe to race.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO profiles (id, subject, email, display_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (subject) DO NOTHING
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		user.ID,
		user.Subject,
		user.Email,
		user.DisplayName,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return services.WrapInternal("failed to create profile", err)
	}

	r.logger.Debug("profile created", zap.String("id", user.ID.String()), zap.String("subject", user.Subject))
	return nil
}

// GetBySubject retrieves a profile by identity provider subject
func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	query := `
		SELECT id, subject, email, display_name, role, created_at, updated_at
		FROM profiles
		WHERE subject = $1
	`

	executor := GetExecutor(ctx, r.db)
	user := &models.User{}

	err := executor.QueryRowContext(ctx, query, subject).Scan(
		&user.ID,
		&user.Subject,
		&user.Email,
		&user.DisplayName,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.NewDomainError(services.ErrorTypeNotFound, "profile not found", err).WithDetail("subject", subject)
		}
		return nil, services.WrapInternal(fmt.Sprintf("failed to get profile %s", subject), err)
	}

	return user, nil
}
