package postgres

import (
	"github.com/upb/monument-scanner/repositories"
	"go.uber.org/zap"
)

// NewRepositories creates all repository instances backed by db
func NewRepositories(db *DB, logger *zap.Logger) *repositories.Repositories {
	return &repositories.Repositories{
		Users:        NewUserRepository(db, logger),
		Transactions: NewTransactionManager(db, logger),
	}
}
