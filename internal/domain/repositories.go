package domain

import (
	"context"
	"time"
)

// UserRepository persists users.
type UserRepository interface {
	// Create inserts the user and fills ID and CreatedAt.
	// Returns ErrConflict when the email is already registered.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	// ListIDs returns every user id in ascending order.
	ListIDs(ctx context.Context) ([]int64, error)
}

// AccountRepository persists accounts.
type AccountRepository interface {
	// Create inserts the account and fills ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id int64) (*Account, error)
	ListByUser(ctx context.Context, userID int64) ([]Account, error)

	// Lock acquires a row lock on the account for the rest of the transaction.
	// Must be called within a transaction context.
	Lock(ctx context.Context, id int64) (*Account, error)

	// UpdateDetails persists number, bank code and type. The balance is never touched.
	UpdateDetails(ctx context.Context, account *Account) error

	// UpdateBalance sets the cached balance. Only the ledger service calls it.
	UpdateBalance(ctx context.Context, id int64, balance int64) error

	// Delete removes the account and, by cascade, its transactions.
	Delete(ctx context.Context, id int64) error
}

// TransactionRepository persists ledger lines.
type TransactionRepository interface {
	// Create inserts the transaction with the next sequence number of its account
	// and fills ID, Seq and CreatedAt.
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id int64) (*Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]Transaction, error)

	// ListAfter returns the account's transactions with a sequence number greater than seq,
	// in sequence order.
	ListAfter(ctx context.Context, accountID, seq int64) ([]Transaction, error)

	// UpdateAmounts persists Amount and ResultingBalance of each given transaction.
	UpdateAmounts(ctx context.Context, txns []Transaction) error
	Delete(ctx context.Context, id int64) error
}

// SpendingRepository aggregates withdrawals for analyses.
type SpendingRepository interface {
	// SpendingByMethod sums WITHDRAW amounts of the user's accounts per method between
	// from and to (inclusive dates). count is the number of matching transactions.
	SpendingByMethod(ctx context.Context, userID int64, from, to time.Time) (totals map[Method]int64, count int, err error)
}

// AnalysisRepository persists analyses.
type AnalysisRepository interface {
	// Upsert inserts or replaces the analysis for (user, about, type, period start).
	// created is false when an existing row was updated.
	Upsert(ctx context.Context, analysis *Analysis) (created bool, err error)
	ListByUser(ctx context.Context, userID int64) ([]Analysis, error)
}

// NotificationRepository persists notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	// ListUnread returns the user's unread notifications, newest first.
	ListUnread(ctx context.Context, userID int64) ([]Notification, error)
	// MarkRead flags the notification as read. Returns ErrNotFound when it does not
	// belong to the user.
	MarkRead(ctx context.Context, userID, id int64) (*Notification, error)
}

// IdempotencyRepository stores responses of keyed transaction requests.
type IdempotencyRepository interface {
	// Get returns nil, nil when the key was never seen.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Reserve claims the key. Returns ErrIdempotencyConflict when another request holds it.
	Reserve(ctx context.Context, key, requestHash string) error
	Complete(ctx context.Context, key string, transactionID int64, status int, body []byte) error
}

// TransactionManager runs a function inside one database transaction.
type TransactionManager interface {
	// WithTransaction commits when fn returns nil and rolls back otherwise.
	// Nested calls join the outer transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
