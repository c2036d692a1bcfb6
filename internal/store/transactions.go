package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

const transactionColumns = `id, account_id, seq, amount, direction, method, resulting_balance, label,
	trans_date, trans_time::text, created_at`

// TransactionRepository implements domain.TransactionRepository.
type TransactionRepository struct {
	s *Store
}

func NewTransactionRepository(s *Store) *TransactionRepository {
	return &TransactionRepository{s: s}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.Seq, &t.Amount, &t.Direction, &t.Method,
		&t.ResultingBalance, &t.Label, &t.Date, &t.Time, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()
	txns := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, domain.NewStorageError("scan transaction", err)
		}
		txns = append(txns, *t)
	}
	return txns, domain.NewStorageError("list transactions", rows.Err())
}

// Create appends the transaction to its account. The caller must hold the account lock
// so the sequence number cannot race.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	err := r.s.conn(ctx).QueryRow(ctx,
		`INSERT INTO transactions
			(account_id, seq, amount, direction, method, resulting_balance, label, trans_date, trans_time)
		 VALUES ($1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions WHERE account_id = $1),
			$2, $3, $4, $5, $6, $7, $8::text::time)
		 RETURNING id, seq, created_at`,
		t.AccountID, t.Amount, t.Direction, t.Method, t.ResultingBalance, t.Label, t.Date, t.Time,
	).Scan(&t.ID, &t.Seq, &t.CreatedAt)
	return domain.NewStorageError("create transaction", err)
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	t, err := scanTransaction(r.s.conn(ctx).QueryRow(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
		}
		return nil, domain.NewStorageError("get transaction", err)
	}
	return t, nil
}

// List returns matching transactions ordered by account and sequence.
func (r *TransactionRepository) List(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if f.AccountID != 0 {
		args = append(args, f.AccountID)
		where = append(where, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if f.Date != nil {
		args = append(args, *f.Date)
		where = append(where, fmt.Sprintf("trans_date = $%d", len(args)))
	}
	if f.Direction != "" {
		args = append(args, f.Direction)
		where = append(where, fmt.Sprintf("direction = $%d", len(args)))
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY account_id, seq"

	rows, err := r.s.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStorageError("list transactions", err)
	}
	return collectTransactions(rows)
}

func (r *TransactionRepository) ListAfter(ctx context.Context, accountID, seq int64) ([]domain.Transaction, error) {
	rows, err := r.s.conn(ctx).Query(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE account_id = $1 AND seq > $2 ORDER BY seq",
		accountID, seq)
	if err != nil {
		return nil, domain.NewStorageError("list later transactions", err)
	}
	return collectTransactions(rows)
}

// UpdateAmounts writes the recomputed rows in one round trip.
func (r *TransactionRepository) UpdateAmounts(ctx context.Context, txns []domain.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range txns {
		batch.Queue("UPDATE transactions SET amount = $2, resulting_balance = $3 WHERE id = $1",
			t.ID, t.Amount, t.ResultingBalance)
	}
	br := r.s.conn(ctx).SendBatch(ctx, batch)
	defer br.Close()
	for range txns {
		if _, err := br.Exec(); err != nil {
			return domain.NewStorageError("update transaction amounts", err)
		}
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.s.conn(ctx).Exec(ctx, "DELETE FROM transactions WHERE id = $1", id)
	if err != nil {
		return domain.NewStorageError("delete transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
	}
	return nil
}

// SpendingByMethod implements domain.SpendingRepository.
func (r *TransactionRepository) SpendingByMethod(ctx context.Context, userID int64, from, to time.Time) (map[domain.Method]int64, int, error) {
	rows, err := r.s.conn(ctx).Query(ctx,
		`SELECT t.method, SUM(t.amount)::bigint, COUNT(*)
		 FROM transactions t
		 JOIN accounts a ON a.id = t.account_id
		 WHERE a.user_id = $1 AND t.direction = $2 AND t.trans_date BETWEEN $3 AND $4
		 GROUP BY t.method`,
		userID, domain.Withdraw, from, to)
	if err != nil {
		return nil, 0, domain.NewStorageError("aggregate spending", err)
	}
	defer rows.Close()

	totals := make(map[domain.Method]int64)
	count := 0
	for rows.Next() {
		var (
			method domain.Method
			sum    int64
			n      int
		)
		if err := rows.Scan(&method, &sum, &n); err != nil {
			return nil, 0, domain.NewStorageError("scan spending", err)
		}
		totals[method] = sum
		count += n
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.NewStorageError("aggregate spending", err)
	}
	return totals, count, nil
}
