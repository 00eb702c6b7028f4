package services

import (
	"context"
	"fmt"

	"github.com/upb/monument-scanner/repositories"
)

// WithTransactionResult runs fn inside a database transaction and returns
// its result. fn receives the transaction context so repository calls join
// the transaction. Commits on success, rolls back on error or panic.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	tx, err := txMgr.Begin(ctx)
	if err != nil {
		return result, WrapInternal("failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	result, err = fn(tx.Context())
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return result, fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return result, err
	}

	if err := tx.Commit(); err != nil {
		return result, WrapInternal("failed to commit transaction", err)
	}

	return result, nil
}
