package domain

import "fmt"

// Direction tells whether a transaction adds to or takes from the balance.
type Direction string

const (
	Deposit  Direction = "DEPOSIT"
	Withdraw Direction = "WITHDRAW"
)

func (d Direction) Valid() bool {
	return d == Deposit || d == Withdraw
}

// Sign is +1 for deposits and -1 for withdrawals.
func (d Direction) Sign() int64 {
	if d == Withdraw {
		return -1
	}
	return 1
}

// ParseDirection accepts the canonical upper case names only.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, s)
	}
	return d, nil
}

// Method is how the money moved.
type Method string

const (
	MethodTransfer      Method = "TRANSFER"
	MethodAutoTransfer  Method = "AUTO_TRANSFER"
	MethodCard          Method = "CARD"
	MethodCash          Method = "CASH"
	MethodOnlinePayment Method = "ONLINE_PAYMENT"
	MethodOther         Method = "OTHER"
)

// Methods lists every method in display order.
var Methods = []Method{
	MethodTransfer, MethodAutoTransfer, MethodCard, MethodCash, MethodOnlinePayment, MethodOther,
}

func (m Method) Valid() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// BankCode is the three digit Korean bank identifier.
type BankCode string

const DefaultBankCode BankCode = "000"

var bankNames = map[BankCode]string{
	"000": "Unknown",
	"002": "KDB",
	"003": "IBK",
	"004": "KB Kookmin",
	"011": "NH NongHyup",
	"020": "Woori",
	"081": "Hana",
	"088": "Shinhan",
	"090": "Kakao Bank",
	"092": "Toss Bank",
}

func (c BankCode) Valid() bool {
	_, ok := bankNames[c]
	return ok
}

// Name returns the bank display name, or the raw code when unknown.
func (c BankCode) Name() string {
	if n, ok := bankNames[c]; ok {
		return n
	}
	return string(c)
}

// AccountType classifies accounts.
type AccountType string

const (
	Checking           AccountType = "CHECKING"
	Savings            AccountType = "SAVINGS"
	InstallmentSavings AccountType = "INSTALLMENT_SAVINGS"
	Loan               AccountType = "LOAN"
)

var accountTypeNames = map[AccountType]string{
	Checking:           "Checking",
	Savings:            "Savings",
	InstallmentSavings: "Installment savings",
	Loan:               "Loan",
}

func (t AccountType) Valid() bool {
	_, ok := accountTypeNames[t]
	return ok
}

func (t AccountType) Display() string {
	if n, ok := accountTypeNames[t]; ok {
		return n
	}
	return string(t)
}

// AnalysisAbout names what an analysis measures.
type AnalysisAbout string

const TotalSpending AnalysisAbout = "TOTAL_SPENDING"

func (a AnalysisAbout) Display() string {
	if a == TotalSpending {
		return "total spending"
	}
	return string(a)
}

// AnalysisType is the reporting period of an analysis.
type AnalysisType string

const (
	Weekly  AnalysisType = "WEEKLY"
	Monthly AnalysisType = "MONTHLY"
)

func (t AnalysisType) Valid() bool {
	return t == Weekly || t == Monthly
}

func (t AnalysisType) Display() string {
	switch t {
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	}
	return string(t)
}
