package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

// UserRepository implements domain.UserRepository.
type UserRepository struct {
	s *Store
}

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.s.conn(ctx).QueryRow(ctx,
		`INSERT INTO users (email, nickname, name, phone) VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Email, u.Nickname, u.Name, u.Phone,
	).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %s is already registered", domain.ErrConflict, u.Email)
	}
	return domain.NewStorageError("create user", err)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.s.conn(ctx).QueryRow(ctx,
		"SELECT id, email, nickname, name, phone, created_at FROM users WHERE id = $1", id,
	).Scan(&u.ID, &u.Email, &u.Nickname, &u.Name, &u.Phone, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
		}
		return nil, domain.NewStorageError("get user", err)
	}
	return &u, nil
}

func (r *UserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.s.conn(ctx).Query(ctx, "SELECT id FROM users ORDER BY id")
	if err != nil {
		return nil, domain.NewStorageError("list users", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, domain.NewStorageError("list users", err)
	}
	return ids, nil
}
