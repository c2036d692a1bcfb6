package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/models"
)

// LedgerService is the only writer of transactions and account balances.
// Every mutation locks the owning account row, so writes to one account are serialized.
type LedgerService struct {
	accounts domain.AccountRepository
	txns     domain.TransactionRepository
	idem     domain.IdempotencyRepository
	tm       domain.TransactionManager
	log      *zap.Logger
}

func NewLedgerService(
	accounts domain.AccountRepository,
	txns domain.TransactionRepository,
	idem domain.IdempotencyRepository,
	tm domain.TransactionManager,
	log *zap.Logger,
) *LedgerService {
	return &LedgerService{accounts: accounts, txns: txns, idem: idem, tm: tm, log: log}
}

// RecordTransaction validates the input, derives the resulting balance from the locked
// account and persists the transaction together with the new balance.
func (s *LedgerService) RecordTransaction(ctx context.Context, in domain.RecordInput) (*domain.Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, s.reject(err)
	}

	var recorded *domain.Transaction
	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		t, err := s.record(ctx, in)
		recorded = t
		return err
	})
	if err != nil {
		return nil, s.reject(err)
	}

	s.recorded(recorded)
	return recorded, nil
}

// RecordTransactionIdempotent behaves like RecordTransaction but remembers the response
// under key. A repeated key with the same request hash returns the stored record instead.
func (s *LedgerService) RecordTransactionIdempotent(ctx context.Context, in domain.RecordInput, key, reqHash string) (*domain.Transaction, *domain.IdempotencyRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, s.reject(err)
	}

	var (
		recorded *domain.Transaction
		replay   *domain.IdempotencyRecord
	)
	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.idem.Get(ctx, key)
		if err != nil {
			return err
		}
		if rec != nil {
			if rec.RequestHash != reqHash {
				return domain.ErrIdempotencyMismatch
			}
			if rec.Status != domain.IdempotencyCompleted {
				return domain.ErrIdempotencyConflict
			}
			replay = rec
			return nil
		}

		if err := s.idem.Reserve(ctx, key, reqHash); err != nil {
			return err
		}

		t, err := s.record(ctx, in)
		if err != nil {
			return err
		}
		body, err := json.Marshal(models.NewTransactionResponse(t))
		if err != nil {
			return fmt.Errorf("encode idempotent response: %w", err)
		}
		if err := s.idem.Complete(ctx, key, t.ID, http.StatusCreated, body); err != nil {
			return err
		}
		recorded = t
		return nil
	})
	if err != nil {
		return nil, nil, s.reject(err)
	}

	if replay != nil {
		s.log.Debug("idempotent replay", zap.String("key", key), zap.Int64("transaction_id", replay.TransactionID))
		return nil, replay, nil
	}
	s.recorded(recorded)
	return recorded, nil, nil
}

func (s *LedgerService) record(ctx context.Context, in domain.RecordInput) (*domain.Transaction, error) {
	acc, err := s.accounts.Lock(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	resulting, err := domain.ApplyTransaction(acc.Balance, in.Amount, in.Direction)
	if err != nil {
		return nil, err
	}

	t := &domain.Transaction{
		AccountID:        acc.ID,
		Amount:           in.Amount,
		Direction:        in.Direction,
		Method:           in.Method,
		ResultingBalance: resulting,
		Label:            in.Label,
		Date:             in.Date,
		Time:             in.Time,
	}
	if err := s.txns.Create(ctx, t); err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateBalance(ctx, acc.ID, resulting); err != nil {
		return nil, err
	}
	return t, nil
}

// AmendTransaction corrects the amount of a transaction. The new amount is validated against
// the balance right before that transaction, and every later transaction of the account is
// re-folded. If any later withdrawal would overdraw, nothing changes.
func (s *LedgerService) AmendTransaction(ctx context.Context, id, newAmount int64) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(newAmount); err != nil {
		return nil, s.reject(err)
	}

	var amended *domain.Transaction
	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		t, acc, err := s.lockTransaction(ctx, id)
		if err != nil {
			return err
		}
		later, err := s.txns.ListAfter(ctx, t.AccountID, t.Seq)
		if err != nil {
			return err
		}

		before := append([]domain.Transaction{*t}, later...)
		chain := append([]domain.Transaction(nil), before...)
		chain[0].Amount = newAmount

		start, err := t.BalanceBefore()
		if err != nil {
			return err
		}
		refolded, final, err := domain.Refold(start, chain)
		if err != nil {
			return err
		}
		if err := s.persistRefold(ctx, acc, before, refolded, final); err != nil {
			return err
		}
		amended = &refolded[0]
		return nil
	})
	if err != nil {
		return nil, s.reject(err)
	}

	s.log.Info("transaction amended",
		zap.Int64("transaction_id", amended.ID),
		zap.Int64("account_id", amended.AccountID),
		zap.Int64("amount", amended.Amount),
		zap.Int64("resulting_balance", amended.ResultingBalance))
	return amended, nil
}

// DeleteTransaction removes a transaction and re-folds the later ones under the same
// rejection rule as AmendTransaction.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		t, acc, err := s.lockTransaction(ctx, id)
		if err != nil {
			return err
		}
		later, err := s.txns.ListAfter(ctx, t.AccountID, t.Seq)
		if err != nil {
			return err
		}

		start, err := t.BalanceBefore()
		if err != nil {
			return err
		}
		refolded, final, err := domain.Refold(start, later)
		if err != nil {
			return err
		}
		if err := s.txns.Delete(ctx, t.ID); err != nil {
			return err
		}
		return s.persistRefold(ctx, acc, later, refolded, final)
	})
	if err != nil {
		return s.reject(err)
	}

	s.log.Info("transaction deleted", zap.Int64("transaction_id", id))
	return nil
}

// lockTransaction locks the owning account and re-reads the transaction under the lock.
func (s *LedgerService) lockTransaction(ctx context.Context, id int64) (*domain.Transaction, *domain.Account, error) {
	t, err := s.txns.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	acc, err := s.accounts.Lock(ctx, t.AccountID)
	if err != nil {
		return nil, nil, err
	}
	t, err = s.txns.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return t, acc, nil
}

func (s *LedgerService) persistRefold(ctx context.Context, acc *domain.Account, before, after []domain.Transaction, final int64) error {
	var changed []domain.Transaction
	for i := range after {
		if after[i].Amount != before[i].Amount || after[i].ResultingBalance != before[i].ResultingBalance {
			changed = append(changed, after[i])
		}
	}
	if err := s.txns.UpdateAmounts(ctx, changed); err != nil {
		return err
	}
	if final != acc.Balance {
		return s.accounts.UpdateBalance(ctx, acc.ID, final)
	}
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	return s.txns.GetByID(ctx, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if filter.Direction != "" && !filter.Direction.Valid() {
		return nil, fmt.Errorf("%w: unknown direction %q", domain.ErrInvalidInput, filter.Direction)
	}
	return s.txns.List(ctx, filter)
}

func (s *LedgerService) recorded(t *domain.Transaction) {
	transactionsRecorded.WithLabelValues(string(t.Direction)).Inc()
	s.log.Info("transaction recorded",
		zap.Int64("transaction_id", t.ID),
		zap.Int64("account_id", t.AccountID),
		zap.String("direction", string(t.Direction)),
		zap.Int64("amount", t.Amount),
		zap.Int64("resulting_balance", t.ResultingBalance))
}

// reject counts business rule rejections and passes every error through unchanged.
func (s *LedgerService) reject(err error) error {
	if domain.IsValidation(err) {
		validationFailures.WithLabelValues(failureReason(err)).Inc()
		s.log.Debug("ledger request rejected", zap.Error(err))
	}
	return err
}
