package domain

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var accountNumberPattern = regexp.MustCompile(`^\d+(-\d+)+$`)

// MaskAccountNumber replaces the last dash separated group with asterisks of the same length.
func MaskAccountNumber(num string) string {
	parts := strings.Split(num, "-")
	last := len(parts) - 1
	parts[last] = strings.Repeat("*", len(parts[last]))
	return strings.Join(parts, "-")
}

// ValidateAccountNumber accepts digit groups joined by dashes, e.g. 1234-56-7890123.
func ValidateAccountNumber(num string) error {
	if len(num) > 50 || !accountNumberPattern.MatchString(num) {
		return fmt.Errorf("%w: account number %q must be digit groups separated by '-'", ErrInvalidInput, num)
	}
	return nil
}

// NewAccountInput is what a user supplies to register an account.
type NewAccountInput struct {
	UserID         int64
	Number         string
	BankCode       BankCode
	Type           AccountType
	OpeningBalance int64
}

// Normalize fills defaults and validates the input.
func (in *NewAccountInput) Normalize() error {
	if in.BankCode == "" {
		in.BankCode = DefaultBankCode
	}
	if in.Type == "" {
		in.Type = Checking
	}
	if err := ValidateAccountNumber(in.Number); err != nil {
		return err
	}
	if !in.BankCode.Valid() {
		return fmt.Errorf("%w: unknown bank code %q", ErrInvalidInput, in.BankCode)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, in.Type)
	}
	if in.OpeningBalance < 0 {
		return fmt.Errorf("%w: opening balance cannot be negative", ErrInvalidInput)
	}
	return nil
}

// AccountPatch changes account metadata. Nil fields are left untouched.
type AccountPatch struct {
	Number   *string
	BankCode *BankCode
	Type     *AccountType
}

// Apply validates the patch and writes it onto acc.
func (p AccountPatch) Apply(acc *Account) error {
	if p.Number != nil {
		if err := ValidateAccountNumber(*p.Number); err != nil {
			return err
		}
		acc.Number = *p.Number
	}
	if p.BankCode != nil {
		if !p.BankCode.Valid() {
			return fmt.Errorf("%w: unknown bank code %q", ErrInvalidInput, *p.BankCode)
		}
		acc.BankCode = *p.BankCode
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, *p.Type)
		}
		acc.Type = *p.Type
	}
	return nil
}

// NewUserInput is the registration payload.
type NewUserInput struct {
	Email    string
	Nickname string
	Name     string
	Phone    string
}

// Normalize validates the email and defaults the nickname to its local part.
func (in *NewUserInput) Normalize() error {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: %q is not a valid email", ErrInvalidInput, in.Email)
	}
	if in.Nickname == "" {
		in.Nickname = in.Email[:strings.Index(in.Email, "@")]
	}
	if len(in.Nickname) > 30 {
		return fmt.Errorf("%w: nickname longer than 30 characters", ErrInvalidInput)
	}
	return nil
}
