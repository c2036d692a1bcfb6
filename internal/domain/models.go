package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// User owns accounts, analyses and notifications.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is a bank account registered by a user.
// Balance is a cache of OpeningBalance folded with every transaction in sequence order.
type Account struct {
	ID             int64       `json:"id"`
	UserID         int64       `json:"user_id"`
	Number         string      `json:"account_num"`
	BankCode       BankCode    `json:"bank_code"`
	Type           AccountType `json:"type"`
	OpeningBalance int64       `json:"opening_balance"`
	Balance        int64       `json:"balance"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Transaction is one ledger line of an account.
// ResultingBalance is always derived, never supplied by a caller.
type Transaction struct {
	ID               int64     `json:"id"`
	AccountID        int64     `json:"account_id"`
	Seq              int64     `json:"seq"`
	Amount           int64     `json:"amount"`
	Direction        Direction `json:"direction"`
	Method           Method    `json:"method"`
	ResultingBalance int64     `json:"resulting_balance"`
	Label            string    `json:"label"`
	Date             time.Time `json:"date"`
	Time             string    `json:"time"`
	CreatedAt        time.Time `json:"created_at"`
}

// BalanceBefore reconstructs the account balance right before this transaction was applied.
func (t Transaction) BalanceBefore() (int64, error) {
	if err := ValidateAmount(t.Amount); err != nil {
		return 0, err
	}
	switch t.Direction {
	case Deposit:
		if t.Amount > t.ResultingBalance {
			return 0, fmt.Errorf("%w: transaction %d deposits %d but results in %d", ErrInvalidInput, t.ID, t.Amount, t.ResultingBalance)
		}
		return t.ResultingBalance - t.Amount, nil
	case Withdraw:
		if t.ResultingBalance < 0 || t.Amount > math.MaxInt64-t.ResultingBalance {
			return 0, fmt.Errorf("%w: transaction %d balance before withdrawing %d overflows", ErrInvalidAmount, t.ID, t.Amount)
		}
		return t.ResultingBalance + t.Amount, nil
	default:
		return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, t.Direction)
	}
}

// TransactionFilter narrows transaction listings. Zero values mean "any".
type TransactionFilter struct {
	AccountID int64
	Date      *time.Time
	Direction Direction
}

// Analysis is a periodic spending report for one user.
type Analysis struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	About         AnalysisAbout `json:"about"`
	Type          AnalysisType  `json:"type"`
	PeriodStart   time.Time     `json:"period_start"`
	PeriodEnd     time.Time     `json:"period_end"`
	Description   string        `json:"description"`
	CurrentTotal  int64         `json:"current_total"`
	PreviousTotal int64         `json:"previous_total"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Title is the human readable name used in notifications.
func (a Analysis) Title() string {
	return fmt.Sprintf("%s ~ %s %s %s analysis",
		a.PeriodStart.Format(DateLayout), a.PeriodEnd.Format(DateLayout),
		a.Type.Display(), a.About.Display())
}

// Notification is a message shown to a user until it is marked read.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// IdempotencyRecord stores the response state for exact-once transaction creation.
type IdempotencyRecord struct {
	Key            string          `json:"key"`
	RequestHash    string          `json:"request_hash"`
	Status         string          `json:"status"`
	TransactionID  int64           `json:"transaction_id,omitempty"`
	ResponseBody   json.RawMessage `json:"response_body,omitempty"`
	ResponseStatus int             `json:"response_status,omitempty"`
}

const (
	IdempotencyInProgress = "in_progress"
	IdempotencyCompleted  = "completed"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)
