package repositories

import (
	"context"

	"github.com/upb/monument-scanner/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction; repository calls
	// made with it run inside the transaction
	Context() context.Context
}

// UserRepository handles profile data operations
type UserRepository interface {
	// Create inserts a new profile
	Create(ctx context.Context, user *models.User) error

	// GetBySubject retrieves a profile by the identity provider subject.
	// The error matches services.ErrUserNotFound when no profile exists.
	GetBySubject(ctx context.Context, subject string) (*models.User, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users        UserRepository
	Transactions TransactionManager
}
