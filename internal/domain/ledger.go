package domain

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// MinimumUnit is the smallest amount a transaction may carry (10 KRW).
const MinimumUnit int64 = 10

// MaxLabelLength is the maximum number of characters in a transaction label.
const MaxLabelLength = 100

// ValidateAmount checks the amount against the minimum currency unit.
func ValidateAmount(amount int64) error {
	if amount < MinimumUnit {
		return fmt.Errorf("%w: amount %d is below the minimum unit of %d", ErrInvalidAmount, amount, MinimumUnit)
	}
	return nil
}

// ApplyTransaction returns the balance after applying amount in the given direction.
// Amount validity is checked before sufficiency.
func ApplyTransaction(balance, amount int64, dir Direction) (int64, error) {
	if err := ValidateAmount(amount); err != nil {
		return 0, err
	}
	switch dir {
	case Deposit:
		if amount > math.MaxInt64-balance {
			return 0, fmt.Errorf("%w: depositing %d would overflow a balance of %d", ErrInvalidAmount, amount, balance)
		}
		return balance + amount, nil
	case Withdraw:
		if amount > balance {
			return 0, fmt.Errorf("%w: cannot withdraw %d from a balance of %d", ErrInsufficientBalance, amount, balance)
		}
		return balance - amount, nil
	default:
		return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, dir)
	}
}

// Refold replays txns in order starting from balance and recomputes every resulting balance.
// The input slice is not modified. It fails on the first transaction that cannot be applied.
func Refold(balance int64, txns []Transaction) ([]Transaction, int64, error) {
	out := make([]Transaction, len(txns))
	running := balance
	for i, t := range txns {
		next, err := ApplyTransaction(running, t.Amount, t.Direction)
		if err != nil {
			return nil, balance, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		t.ResultingBalance = next
		out[i] = t
		running = next
	}
	return out, running, nil
}

// RecordInput is everything a caller supplies to record a transaction.
type RecordInput struct {
	AccountID int64
	Amount    int64
	Direction Direction
	Method    Method
	Label     string
	Date      time.Time
	Time      string
}

// Validate checks the input without touching the account. The amount is checked first.
func (in RecordInput) Validate() error {
	if err := ValidateAmount(in.Amount); err != nil {
		return err
	}
	if !in.Direction.Valid() {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, in.Direction)
	}
	if !in.Method.Valid() {
		return fmt.Errorf("%w: unknown method %q", ErrInvalidInput, in.Method)
	}
	if utf8.RuneCountInString(in.Label) > MaxLabelLength {
		return fmt.Errorf("%w: label longer than %d characters", ErrInvalidInput, MaxLabelLength)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: transaction date is required", ErrInvalidInput)
	}
	if _, err := time.Parse(TimeLayout, in.Time); err != nil {
		return fmt.Errorf("%w: transaction time %q is not HH:MM:SS", ErrInvalidInput, in.Time)
	}
	return nil
}
