package domain

import (
	"errors"
	"testing"
	"time"
)

func TestMaskAccountNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234-56-7890123", "1234-56-*******"},
		{"110-123-456789", "110-123-******"},
		{"12345", "*****"},
	}
	for _, tt := range tests {
		if got := MaskAccountNumber(tt.in); got != tt.want {
			t.Errorf("MaskAccountNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateAccountNumber(t *testing.T) {
	for _, ok := range []string{"1234-56-7890123", "1-2"} {
		if err := ValidateAccountNumber(ok); err != nil {
			t.Errorf("%q: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{"", "1234567", "1234--56", "abcd-12", "1234-56-"} {
		if err := ValidateAccountNumber(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%q: expected invalid input, got %v", bad, err)
		}
	}
}

func TestNewAccountInput_Normalize(t *testing.T) {
	in := NewAccountInput{UserID: 1, Number: "1234-56-7890123", OpeningBalance: 1_000_000}
	if err := in.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.BankCode != DefaultBankCode {
		t.Errorf("expected default bank code, got %q", in.BankCode)
	}
	if in.Type != Checking {
		t.Errorf("expected CHECKING, got %q", in.Type)
	}

	bad := []NewAccountInput{
		{Number: "1234-56-7890123", BankCode: "999"},
		{Number: "1234-56-7890123", Type: "BROKERAGE"},
		{Number: "1234-56-7890123", OpeningBalance: -1},
		{Number: "nope"},
	}
	for i, in := range bad {
		if err := in.Normalize(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: expected invalid input, got %v", i, err)
		}
	}
}

func TestAccountPatch_Apply(t *testing.T) {
	acc := Account{Number: "1234-56-7890123", BankCode: "004", Type: Checking, Balance: 5_000}
	bank := BankCode("088")
	typ := Savings
	if err := (AccountPatch{BankCode: &bank, Type: &typ}).Apply(&acc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.BankCode != "088" || acc.Type != Savings || acc.Number != "1234-56-7890123" {
		t.Errorf("unexpected account after patch: %+v", acc)
	}
	if acc.Balance != 5_000 {
		t.Errorf("balance must not change, got %d", acc.Balance)
	}

	badBank := BankCode("123")
	if err := (AccountPatch{BankCode: &badBank}).Apply(&acc); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestNewUserInput_Normalize(t *testing.T) {
	in := NewUserInput{Email: " jieun@example.com "}
	if err := in.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Email != "jieun@example.com" {
		t.Errorf("expected trimmed email, got %q", in.Email)
	}
	if in.Nickname != "jieun" {
		t.Errorf("expected nickname from local part, got %q", in.Nickname)
	}

	kept := NewUserInput{Email: "a@b.io", Nickname: "bee"}
	if err := kept.Normalize(); err != nil || kept.Nickname != "bee" {
		t.Errorf("explicit nickname should be kept: %q %v", kept.Nickname, err)
	}

	for _, email := range []string{"", "not-an-email", "Name <a@b.io>"} {
		in := NewUserInput{Email: email}
		if err := in.Normalize(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%q: expected invalid input, got %v", email, err)
		}
	}
}

func TestBankCodeAndTypeDisplay(t *testing.T) {
	if got := BankCode("090").Name(); got != "Kakao Bank" {
		t.Errorf("unexpected bank name %q", got)
	}
	if got := BankCode("777").Name(); got != "777" {
		t.Errorf("unknown code should fall back to the code, got %q", got)
	}
	if got := InstallmentSavings.Display(); got != "Installment savings" {
		t.Errorf("unexpected type display %q", got)
	}
}

func TestAnalysisTitle(t *testing.T) {
	a := Analysis{
		About:       TotalSpending,
		Type:        Weekly,
		PeriodStart: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
	}
	want := "2024-03-04 ~ 2024-03-17 weekly total spending analysis"
	if got := a.Title(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
