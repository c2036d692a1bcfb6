package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

const accountColumns = `id, user_id, account_num, bank_code, type, opening_balance, balance, created_at, updated_at`

// AccountRepository implements domain.AccountRepository.
type AccountRepository struct {
	s *Store
}

func NewAccountRepository(s *Store) *AccountRepository {
	return &AccountRepository{s: s}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Number, &a.BankCode, &a.Type,
		&a.OpeningBalance, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account whose balance starts at its opening balance.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	a.Balance = a.OpeningBalance
	err := r.s.conn(ctx).QueryRow(ctx,
		`INSERT INTO accounts (user_id, account_num, bank_code, type, opening_balance, balance)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 RETURNING id, created_at, updated_at`,
		a.UserID, a.Number, a.BankCode, a.Type, a.OpeningBalance,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return domain.NewStorageError("create account", err)
}

// GetByID retrieves a single account.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	a, err := scanAccount(r.s.conn(ctx).QueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %d", domain.ErrNotFound, id)
		}
		return nil, domain.NewStorageError("get account", err)
	}
	return a, nil
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	rows, err := r.s.conn(ctx).Query(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = $1 ORDER BY id", userID)
	if err != nil {
		return nil, domain.NewStorageError("list accounts", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, domain.NewStorageError("scan account", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, domain.NewStorageError("list accounts", rows.Err())
}

// Lock reads the account with SELECT ... FOR UPDATE.
func (r *AccountRepository) Lock(ctx context.Context, id int64) (*domain.Account, error) {
	if getTx(ctx) == nil {
		return nil, domain.NewStorageError("lock account", errors.New("no transaction in context"))
	}
	a, err := scanAccount(r.s.conn(ctx).QueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %d", domain.ErrNotFound, id)
		}
		return nil, domain.NewStorageError("lock account", err)
	}
	return a, nil
}

func (r *AccountRepository) UpdateDetails(ctx context.Context, a *domain.Account) error {
	err := r.s.conn(ctx).QueryRow(ctx,
		`UPDATE accounts SET account_num = $2, bank_code = $3, type = $4, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`,
		a.ID, a.Number, a.BankCode, a.Type,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: account %d", domain.ErrNotFound, a.ID)
	}
	return domain.NewStorageError("update account", err)
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, id int64, balance int64) error {
	tag, err := r.s.conn(ctx).Exec(ctx,
		"UPDATE accounts SET balance = $2, updated_at = NOW() WHERE id = $1", id, balance)
	if err != nil {
		return domain.NewStorageError("update balance", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.s.conn(ctx).Exec(ctx, "DELETE FROM accounts WHERE id = $1", id)
	if err != nil {
		return domain.NewStorageError("delete account", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %d", domain.ErrNotFound, id)
	}
	return nil
}
