package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount is returned when an amount is below MinimumUnit.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientBalance is returned when a withdrawal exceeds the running balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput covers malformed enums, labels, dates and account numbers.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("conflict")

	ErrIdempotencyConflict = errors.New("request in progress")
	ErrIdempotencyMismatch = errors.New("key reuse with mismatched payload")

	// ErrNotEnoughData means an analysis period has no transactions to compare.
	ErrNotEnoughData = errors.New("not enough transaction data")
)

// StorageError wraps an infrastructure failure of the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError returns nil when err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsValidation reports whether err is an expected business rule rejection.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidInput)
}
