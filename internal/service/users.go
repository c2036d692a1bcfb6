package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

type UserService struct {
	users domain.UserRepository
	log   *zap.Logger
}

func NewUserService(users domain.UserRepository, log *zap.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// RegisterUser creates a user. A duplicate email yields domain.ErrConflict.
func (s *UserService) RegisterUser(ctx context.Context, in domain.NewUserInput) (*domain.User, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	u := &domain.User{Email: in.Email, Nickname: in.Nickname, Name: in.Name, Phone: in.Phone}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
