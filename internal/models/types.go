package models

import (
	"fmt"
	"time"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

// RegisterUserRequest is the payload of POST /users.
type RegisterUserRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

// CreateAccountRequest is the payload of POST /accounts.
type CreateAccountRequest struct {
	Number         string `json:"account_num"`
	BankCode       string `json:"bank_code"`
	Type           string `json:"type"`
	OpeningBalance int64  `json:"opening_balance"`
}

// UpdateAccountRequest is the payload of PATCH /accounts/{id}. Balance is not accepted.
type UpdateAccountRequest struct {
	Number   *string `json:"account_num"`
	BankCode *string `json:"bank_code"`
	Type     *string `json:"type"`
}

// RecordTransactionRequest is the payload of POST /transactions.
type RecordTransactionRequest struct {
	AccountID int64  `json:"account_id"`
	Amount    int64  `json:"amount"`
	Direction string `json:"direction"`
	Method    string `json:"method"`
	Label     string `json:"label"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// AmendTransactionRequest is the payload of PATCH /transactions/{id}.
type AmendTransactionRequest struct {
	Amount *int64 `json:"amount"`
}

// AccountResponse masks the account number and adds display names.
type AccountResponse struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Number         string    `json:"account_num"`
	BankCode       string    `json:"bank_code"`
	BankName       string    `json:"bank_name"`
	Type           string    `json:"type"`
	OpeningBalance int64     `json:"opening_balance"`
	Balance        int64     `json:"balance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountDetailResponse is an account with its transactions in sequence order.
type AccountDetailResponse struct {
	AccountResponse
	Transactions []TransactionResponse `json:"transactions"`
}

// TransactionResponse is the canonical transaction representation for 200/201 responses.
type TransactionResponse struct {
	ID               int64     `json:"id"`
	AccountID        int64     `json:"account_id"`
	Seq              int64     `json:"seq"`
	Amount           int64     `json:"amount"`
	ResultingBalance int64     `json:"resulting_balance"`
	Label            string    `json:"label"`
	Direction        string    `json:"direction"`
	Method           string    `json:"method"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	CreatedAt        time.Time `json:"created_at"`
}

// UserResponse is the public user representation.
type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalysisResponse is one stored analysis.
type AnalysisResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	About         string    `json:"about"`
	Type          string    `json:"type"`
	PeriodStart   string    `json:"period_start"`
	PeriodEnd     string    `json:"period_end"`
	Description   string    `json:"description"`
	CurrentTotal  int64     `json:"current_total"`
	PreviousTotal int64     `json:"previous_total"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NotificationResponse is one notification.
type NotificationResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func NewAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		Number:         domain.MaskAccountNumber(a.Number),
		BankCode:       string(a.BankCode),
		BankName:       a.BankCode.Name(),
		Type:           a.Type.Display(),
		OpeningBalance: a.OpeningBalance,
		Balance:        a.Balance,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func NewAccountDetailResponse(a *domain.Account, txns []domain.Transaction) AccountDetailResponse {
	return AccountDetailResponse{
		AccountResponse: NewAccountResponse(a),
		Transactions:    NewTransactionResponses(txns),
	}
}

func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               t.ID,
		AccountID:        t.AccountID,
		Seq:              t.Seq,
		Amount:           t.Amount,
		ResultingBalance: t.ResultingBalance,
		Label:            t.Label,
		Direction:        string(t.Direction),
		Method:           string(t.Method),
		Date:             t.Date.Format(domain.DateLayout),
		Time:             t.Time,
		CreatedAt:        t.CreatedAt,
	}
}

func NewTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, NewTransactionResponse(&txns[i]))
	}
	return out
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Nickname:  u.Nickname,
		Name:      u.Name,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

func NewAnalysisResponse(a *domain.Analysis) AnalysisResponse {
	return AnalysisResponse{
		ID:            a.ID,
		Title:         a.Title(),
		About:         string(a.About),
		Type:          string(a.Type),
		PeriodStart:   a.PeriodStart.Format(domain.DateLayout),
		PeriodEnd:     a.PeriodEnd.Format(domain.DateLayout),
		Description:   a.Description,
		CurrentTotal:  a.CurrentTotal,
		PreviousTotal: a.PreviousTotal,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func NewNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// ToInput converts the request into ledger input. An unparsable date is reported only
// after the amount passes, so amount errors always win.
func (r RecordTransactionRequest) ToInput() (domain.RecordInput, error) {
	in := domain.RecordInput{
		AccountID: r.AccountID,
		Amount:    r.Amount,
		Direction: domain.Direction(r.Direction),
		Method:    domain.Method(r.Method),
		Label:     r.Label,
		Time:      r.Time,
	}
	if r.Date != "" {
		d, err := time.Parse(domain.DateLayout, r.Date)
		if err != nil {
			if aerr := domain.ValidateAmount(r.Amount); aerr != nil {
				return in, aerr
			}
			return in, fmt.Errorf("%w: date %q is not YYYY-MM-DD", domain.ErrInvalidInput, r.Date)
		}
		in.Date = d
	}
	return in, nil
}

func (r CreateAccountRequest) ToInput(userID int64) domain.NewAccountInput {
	return domain.NewAccountInput{
		UserID:         userID,
		Number:         r.Number,
		BankCode:       domain.BankCode(r.BankCode),
		Type:           domain.AccountType(r.Type),
		OpeningBalance: r.OpeningBalance,
	}
}

func (r UpdateAccountRequest) ToPatch() domain.AccountPatch {
	var p domain.AccountPatch
	p.Number = r.Number
	if r.BankCode != nil {
		c := domain.BankCode(*r.BankCode)
		p.BankCode = &c
	}
	if r.Type != nil {
		t := domain.AccountType(*r.Type)
		p.Type = &t
	}
	return p
}

func (r RegisterUserRequest) ToInput() domain.NewUserInput {
	return domain.NewUserInput{Email: r.Email, Nickname: r.Nickname, Name: r.Name, Phone: r.Phone}
}
