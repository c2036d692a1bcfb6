package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

type txKey struct{}

// WithTransaction executes fn within a database transaction stored in the context.
// Repositories called with that context join the transaction. If ctx already carries
// one, fn runs inside it and the outer caller owns commit and rollback.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if getTx(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.Db.Begin(ctx)
	if err != nil {
		return domain.NewStorageError("begin transaction", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.log.Warn("rollback failed", zap.Error(err))
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewStorageError("commit transaction", err)
	}
	return nil
}

func getTx(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}
