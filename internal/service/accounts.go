package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

// AccountService manages account metadata. Balances are owned by LedgerService.
type AccountService struct {
	users    domain.UserRepository
	accounts domain.AccountRepository
	txns     domain.TransactionRepository
	log      *zap.Logger
}

func NewAccountService(users domain.UserRepository, accounts domain.AccountRepository, txns domain.TransactionRepository, log *zap.Logger) *AccountService {
	return &AccountService{users: users, accounts: accounts, txns: txns, log: log}
}

func (s *AccountService) CreateAccount(ctx context.Context, in domain.NewAccountInput) (*domain.Account, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	acc := &domain.Account{
		UserID:         in.UserID,
		Number:         in.Number,
		BankCode:       in.BankCode,
		Type:           in.Type,
		OpeningBalance: in.OpeningBalance,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}
	s.log.Info("account created", zap.Int64("account_id", acc.ID), zap.Int64("user_id", acc.UserID))
	return acc, nil
}

// GetAccount returns the account and its transactions in sequence order.
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*domain.Account, []domain.Transaction, error) {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	txns, err := s.txns.List(ctx, domain.TransactionFilter{AccountID: id})
	if err != nil {
		return nil, nil, err
	}
	return acc, txns, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, userID int64) ([]domain.Account, error) {
	return s.accounts.ListByUser(ctx, userID)
}

func (s *AccountService) UpdateAccount(ctx context.Context, id int64, patch domain.AccountPatch) (*domain.Account, error) {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(acc); err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateDetails(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// DeleteAccount removes the account together with its transactions.
func (s *AccountService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("account deleted", zap.Int64("account_id", id))
	return nil
}
