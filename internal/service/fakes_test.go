package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

// memStore is an in-memory database shared by the fake repositories below.
// memTM snapshots it before a transaction and restores it when the function fails.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]domain.User
	accounts map[int64]domain.Account
	txns     map[int64]domain.Transaction
	idem     map[string]domain.IdempotencyRecord
	notes    map[int64]domain.Notification

	locks  []int64
	failOp string
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]domain.User{},
		accounts: map[int64]domain.Account{},
		txns:     map[int64]domain.Transaction{},
		idem:     map[string]domain.IdempotencyRecord{},
		notes:    map[int64]domain.Notification{},
	}
}

var errDiskFull = errors.New("disk full")

func (m *memStore) fail(op string) error {
	if m.failOp == op {
		return domain.NewStorageError(op, errDiskFull)
	}
	return nil
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

type memSnapshot struct {
	nextID   int64
	users    map[int64]domain.User
	accounts map[int64]domain.Account
	txns     map[int64]domain.Transaction
	idem     map[string]domain.IdempotencyRecord
	notes    map[int64]domain.Notification
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memSnapshot{
		nextID:   m.nextID,
		users:    maps.Clone(m.users),
		accounts: maps.Clone(m.accounts),
		txns:     maps.Clone(m.txns),
		idem:     maps.Clone(m.idem),
		notes:    maps.Clone(m.notes),
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID, m.users, m.accounts, m.txns, m.idem, m.notes = s.nextID, s.users, s.accounts, s.txns, s.idem, s.notes
}

type memTM struct{ m *memStore }

type inTxKey struct{}

func (tm memTM) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}
	snap := tm.m.snapshot()
	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		tm.m.restore(snap)
		return err
	}
	return nil
}

// seedAccount stores an account with the given opening balance and returns its id.
func (m *memStore) seedAccount(userID, balance int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.accounts[id] = domain.Account{
		ID: id, UserID: userID, Number: "1234-56-7890123", BankCode: "004", Type: domain.Checking,
		OpeningBalance: balance, Balance: balance,
	}
	return id
}

func (m *memStore) balance(accountID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[accountID].Balance
}

// accountTxns returns the account's transactions in sequence order.
func (m *memStore) accountTxns(accountID int64) []domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, t := range m.txns {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

type memUsers struct{ m *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: email %s is already registered", domain.ErrConflict, u.Email)
		}
	}
	u.ID = r.m.id()
	u.CreatedAt = time.Now()
	r.m.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return &u, nil
}

func (r memUsers) ListIDs(_ context.Context) ([]int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var ids []int64
	for id := range r.m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type memAccounts struct{ m *memStore }

func (r memAccounts) Create(_ context.Context, a *domain.Account) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("create account"); err != nil {
		return err
	}
	a.ID = r.m.id()
	a.Balance = a.OpeningBalance
	r.m.accounts[a.ID] = *a
	return nil
}

func (r memAccounts) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %d", domain.ErrNotFound, id)
	}
	return &a, nil
}

func (r memAccounts) ListByUser(_ context.Context, userID int64) ([]domain.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []domain.Account{}
	for _, a := range r.m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAccounts) Lock(ctx context.Context, id int64) (*domain.Account, error) {
	if ctx.Value(inTxKey{}) == nil {
		return nil, domain.NewStorageError("lock account", errors.New("no transaction in context"))
	}
	r.m.mu.Lock()
	r.m.locks = append(r.m.locks, id)
	r.m.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r memAccounts) UpdateDetails(_ context.Context, a *domain.Account) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.accounts[a.ID]
	if !ok {
		return fmt.Errorf("%w: account %d", domain.ErrNotFound, a.ID)
	}
	cur.Number, cur.BankCode, cur.Type = a.Number, a.BankCode, a.Type
	r.m.accounts[a.ID] = cur
	return nil
}

func (r memAccounts) UpdateBalance(_ context.Context, id int64, balance int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("update balance"); err != nil {
		return err
	}
	cur, ok := r.m.accounts[id]
	if !ok {
		return fmt.Errorf("%w: account %d", domain.ErrNotFound, id)
	}
	cur.Balance = balance
	r.m.accounts[id] = cur
	return nil
}

func (r memAccounts) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.accounts[id]; !ok {
		return fmt.Errorf("%w: account %d", domain.ErrNotFound, id)
	}
	delete(r.m.accounts, id)
	for tid, t := range r.m.txns {
		if t.AccountID == id {
			delete(r.m.txns, tid)
		}
	}
	return nil
}

type memTxns struct{ m *memStore }

func (r memTxns) Create(_ context.Context, t *domain.Transaction) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("create transaction"); err != nil {
		return err
	}
	var seq int64
	for _, existing := range r.m.txns {
		if existing.AccountID == t.AccountID && existing.Seq > seq {
			seq = existing.Seq
		}
	}
	t.ID = r.m.id()
	t.Seq = seq + 1
	t.CreatedAt = time.Now()
	r.m.txns[t.ID] = *t
	return nil
}

func (r memTxns) GetByID(_ context.Context, id int64) (*domain.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.txns[id]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
	}
	return &t, nil
}

func (r memTxns) List(_ context.Context, f domain.TransactionFilter) ([]domain.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []domain.Transaction{}
	for _, t := range r.m.txns {
		if f.AccountID != 0 && t.AccountID != f.AccountID {
			continue
		}
		if f.Date != nil && !t.Date.Equal(*f.Date) {
			continue
		}
		if f.Direction != "" && t.Direction != f.Direction {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountID != out[j].AccountID {
			return out[i].AccountID < out[j].AccountID
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (r memTxns) ListAfter(ctx context.Context, accountID, seq int64) ([]domain.Transaction, error) {
	all, _ := r.List(ctx, domain.TransactionFilter{AccountID: accountID})
	out := []domain.Transaction{}
	for _, t := range all {
		if t.Seq > seq {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memTxns) UpdateAmounts(_ context.Context, txns []domain.Transaction) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range txns {
		cur := r.m.txns[t.ID]
		cur.Amount, cur.ResultingBalance = t.Amount, t.ResultingBalance
		r.m.txns[t.ID] = cur
	}
	return nil
}

func (r memTxns) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.txns[id]; !ok {
		return fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
	}
	delete(r.m.txns, id)
	return nil
}

type memIdem struct{ m *memStore }

func (r memIdem) Get(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.idem[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r memIdem) Reserve(_ context.Context, key, hash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.idem[key]; ok {
		return domain.ErrIdempotencyConflict
	}
	r.m.idem[key] = domain.IdempotencyRecord{Key: key, RequestHash: hash, Status: domain.IdempotencyInProgress}
	return nil
}

func (r memIdem) Complete(_ context.Context, key string, txnID int64, status int, body []byte) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec := r.m.idem[key]
	rec.Status, rec.TransactionID, rec.ResponseStatus, rec.ResponseBody = domain.IdempotencyCompleted, txnID, status, body
	r.m.idem[key] = rec
	return nil
}

type memNotes struct{ m *memStore }

func (r memNotes) Create(_ context.Context, n *domain.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n.ID = r.m.id()
	n.CreatedAt = time.Now()
	r.m.notes[n.ID] = *n
	return nil
}

func (r memNotes) ListUnread(_ context.Context, userID int64) ([]domain.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []domain.Notification{}
	for _, n := range r.m.notes {
		if n.UserID == userID && !n.IsRead {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memNotes) MarkRead(_ context.Context, userID, id int64) (*domain.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n, ok := r.m.notes[id]
	if !ok || n.UserID != userID {
		return nil, fmt.Errorf("%w: notification %d", domain.ErrNotFound, id)
	}
	n.IsRead = true
	r.m.notes[id] = n
	return &n, nil
}
