package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

// IdempotencyRepository implements domain.IdempotencyRepository on the idempotency_keys table.
type IdempotencyRepository struct {
	s *Store
}

func NewIdempotencyRepository(s *Store) *IdempotencyRepository {
	return &IdempotencyRepository{s: s}
}

func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	rec := domain.IdempotencyRecord{Key: key}
	var (
		txnID  *int64
		status *int32
		body   *string
	)
	err := r.s.conn(ctx).QueryRow(ctx,
		"SELECT request_hash, status, transaction_id, response_status, response_body::text FROM idempotency_keys WHERE key = $1",
		key,
	).Scan(&rec.RequestHash, &rec.Status, &txnID, &status, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewStorageError("idempotency lookup", err)
	}
	if txnID != nil {
		rec.TransactionID = *txnID
	}
	if status != nil {
		rec.ResponseStatus = int(*status)
	}
	if body != nil {
		rec.ResponseBody = json.RawMessage(*body)
	}
	return &rec, nil
}

// Reserve inserts the key as in progress. A concurrent holder blocks on the primary key
// until it commits, then this insert fails with a unique violation.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key, requestHash string) error {
	_, err := r.s.conn(ctx).Exec(ctx,
		"INSERT INTO idempotency_keys (key, request_hash, status) VALUES ($1, $2, $3)",
		key, requestHash, domain.IdempotencyInProgress)
	if isUniqueViolation(err) {
		return domain.ErrIdempotencyConflict
	}
	return domain.NewStorageError("idempotency reservation", err)
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key string, transactionID int64, status int, body []byte) error {
	_, err := r.s.conn(ctx).Exec(ctx,
		`UPDATE idempotency_keys SET status = $2, transaction_id = $3, response_status = $4, response_body = $5
		 WHERE key = $1`,
		key, domain.IdempotencyCompleted, transactionID, status, body)
	return domain.NewStorageError("idempotency update", err)
}
