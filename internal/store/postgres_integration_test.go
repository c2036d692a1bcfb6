package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/models"
	"github.com/punchamoorthee/ledgerbook/internal/service"
	"github.com/punchamoorthee/ledgerbook/internal/store"
)

type fixture struct {
	db       *store.Store
	users    *store.UserRepository
	accounts *store.AccountRepository
	txns     *store.TransactionRepository
	ledger   *service.LedgerService
	seq      int
}

func startPostgres(t *testing.T, ctx context.Context) *fixture {
	t.Helper()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("ledger"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := store.NewStore(ctx, dsn, 20, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	// Migrations are idempotent.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}

	f := &fixture{
		db:       db,
		users:    store.NewUserRepository(db),
		accounts: store.NewAccountRepository(db),
		txns:     store.NewTransactionRepository(db),
	}
	f.ledger = service.NewLedgerService(f.accounts, f.txns, store.NewIdempotencyRepository(db), db, zap.NewNop())
	return f
}

func (f *fixture) account(t *testing.T, ctx context.Context, opening int64) (*domain.User, *domain.Account) {
	t.Helper()
	f.seq++
	u := &domain.User{Email: fmt.Sprintf("user%d@example.com", f.seq), Nickname: fmt.Sprintf("user%d", f.seq)}
	if err := f.users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	acc := &domain.Account{UserID: u.ID, Number: "110-123-456789", BankCode: "088", Type: domain.Checking, OpeningBalance: opening}
	if err := f.accounts.Create(ctx, acc); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return u, acc
}

func (f *fixture) record(t *testing.T, ctx context.Context, accountID, amount int64, dir domain.Direction, date time.Time) *domain.Transaction {
	t.Helper()
	txn, err := f.ledger.RecordTransaction(ctx, domain.RecordInput{
		AccountID: accountID, Amount: amount, Direction: dir, Method: domain.MethodCard,
		Label: "test", Date: date, Time: "12:30:00",
	})
	if err != nil {
		t.Fatalf("record %s %d: %v", dir, amount, err)
	}
	return txn
}

func (f *fixture) balance(t *testing.T, ctx context.Context, accountID int64) int64 {
	t.Helper()
	acc, err := f.accounts.GetByID(ctx, accountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return acc.Balance
}

func TestPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	f := startPostgres(t, ctx)
	day := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

	t.Run("users", func(t *testing.T) {
		u := &domain.User{Email: "dup@example.com", Nickname: "dup"}
		if err := f.users.Create(ctx, u); err != nil {
			t.Fatal(err)
		}
		err := f.users.Create(ctx, &domain.User{Email: "dup@example.com", Nickname: "other"})
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("expected conflict, got %v", err)
		}
		if _, err := f.users.GetByID(ctx, 999_999); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
		ids, err := f.users.ListIDs(ctx)
		if err != nil || len(ids) == 0 {
			t.Errorf("expected user ids, got %v %v", ids, err)
		}
	})

	t.Run("record keeps balance and chain in sync", func(t *testing.T) {
		_, acc := f.account(t, ctx, 1_000_000)

		w := f.record(t, ctx, acc.ID, 18_000, domain.Withdraw, day)
		if w.ResultingBalance != 982_000 || w.Seq != 1 || w.Time != "12:30:00" {
			t.Errorf("unexpected first transaction %+v", w)
		}
		d := f.record(t, ctx, acc.ID, 5_000, domain.Deposit, day.AddDate(0, 0, 1))
		if d.ResultingBalance != 987_000 || d.Seq != 2 {
			t.Errorf("unexpected second transaction %+v", d)
		}
		if got := f.balance(t, ctx, acc.ID); got != 987_000 {
			t.Errorf("expected balance 987000, got %d", got)
		}

		_, err := f.ledger.RecordTransaction(ctx, domain.RecordInput{
			AccountID: acc.ID, Amount: 2_000_000, Direction: domain.Withdraw, Method: domain.MethodCash, Date: day, Time: "09:00:00",
		})
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Errorf("expected insufficient balance, got %v", err)
		}

		withdrawals, err := f.txns.List(ctx, domain.TransactionFilter{AccountID: acc.ID, Direction: domain.Withdraw})
		if err != nil || len(withdrawals) != 1 {
			t.Errorf("expected one withdrawal, got %d (%v)", len(withdrawals), err)
		}
		onDay, err := f.txns.List(ctx, domain.TransactionFilter{AccountID: acc.ID, Date: &day})
		if err != nil || len(onDay) != 1 || onDay[0].ID != w.ID {
			t.Errorf("date filter returned %+v (%v)", onDay, err)
		}
	})

	t.Run("concurrent withdrawals never overdraw", func(t *testing.T) {
		_, acc := f.account(t, ctx, 1_000)

		const workers = 20
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			rejected  int
		)
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				_, err := f.ledger.RecordTransaction(ctx, domain.RecordInput{
					AccountID: acc.ID, Amount: 100, Direction: domain.Withdraw, Method: domain.MethodCard, Date: day, Time: "10:00:00",
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, domain.ErrInsufficientBalance):
					rejected++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if succeeded != 10 || rejected != 10 {
			t.Errorf("expected 10 successes and 10 rejections, got %d / %d", succeeded, rejected)
		}
		if got := f.balance(t, ctx, acc.ID); got != 0 {
			t.Errorf("expected balance 0, got %d", got)
		}
		txns, err := f.txns.List(ctx, domain.TransactionFilter{AccountID: acc.ID})
		if err != nil {
			t.Fatal(err)
		}
		for i, txn := range txns {
			if txn.Seq != int64(i+1) {
				t.Errorf("sequence gap at %d: seq %d", i, txn.Seq)
			}
		}
	})

	t.Run("amend and delete refold later transactions", func(t *testing.T) {
		_, acc := f.account(t, ctx, 1_000)
		first := f.record(t, ctx, acc.ID, 100, domain.Withdraw, day)
		f.record(t, ctx, acc.ID, 200, domain.Withdraw, day)
		last := f.record(t, ctx, acc.ID, 50, domain.Deposit, day)

		amended, err := f.ledger.AmendTransaction(ctx, first.ID, 300)
		if err != nil {
			t.Fatal(err)
		}
		if amended.ResultingBalance != 700 {
			t.Errorf("expected 700, got %d", amended.ResultingBalance)
		}
		got, err := f.txns.GetByID(ctx, last.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.ResultingBalance != 550 || f.balance(t, ctx, acc.ID) != 550 {
			t.Errorf("later transaction not refolded: %d, balance %d", got.ResultingBalance, f.balance(t, ctx, acc.ID))
		}

		if _, err := f.ledger.AmendTransaction(ctx, first.ID, 900); !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Errorf("expected downstream overdraft rejection, got %v", err)
		}
		if f.balance(t, ctx, acc.ID) != 550 {
			t.Error("rejected amendment must not change the balance")
		}

		if err := f.ledger.DeleteTransaction(ctx, first.ID); err != nil {
			t.Fatal(err)
		}
		if got := f.balance(t, ctx, acc.ID); got != 850 {
			t.Errorf("expected 850 after delete, got %d", got)
		}
		if _, err := f.txns.GetByID(ctx, first.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected deleted transaction to be gone, got %v", err)
		}
	})

	t.Run("idempotent record replays the stored response", func(t *testing.T) {
		_, acc := f.account(t, ctx, 1_000)
		in := domain.RecordInput{AccountID: acc.ID, Amount: 100, Direction: domain.Withdraw, Method: domain.MethodCard, Date: day, Time: "08:00:00"}

		txn, replay, err := f.ledger.RecordTransactionIdempotent(ctx, in, "it-key-1", "hash")
		if err != nil || replay != nil {
			t.Fatalf("first call: %v %v", replay, err)
		}
		_, replay, err = f.ledger.RecordTransactionIdempotent(ctx, in, "it-key-1", "hash")
		if err != nil || replay == nil {
			t.Fatalf("replay: %v %v", replay, err)
		}
		var body models.TransactionResponse
		if err := json.Unmarshal(replay.ResponseBody, &body); err != nil {
			t.Fatalf("stored body: %v", err)
		}
		if body.ID != txn.ID || body.ResultingBalance != 900 || replay.ResponseStatus != 201 {
			t.Errorf("unexpected replay %+v / %+v", replay, body)
		}
		if f.balance(t, ctx, acc.ID) != 900 {
			t.Error("replay must not apply the transaction twice")
		}
		if _, _, err := f.ledger.RecordTransactionIdempotent(ctx, in, "it-key-1", "other"); !errors.Is(err, domain.ErrIdempotencyMismatch) {
			t.Errorf("expected mismatch, got %v", err)
		}
	})

	t.Run("spending and analyses", func(t *testing.T) {
		u, acc := f.account(t, ctx, 100_000)
		f.record(t, ctx, acc.ID, 1_000, domain.Withdraw, day)
		f.record(t, ctx, acc.ID, 2_000, domain.Withdraw, day.AddDate(0, 0, 1))
		f.record(t, ctx, acc.ID, 5_000, domain.Deposit, day)
		f.record(t, ctx, acc.ID, 4_000, domain.Withdraw, day.AddDate(0, 0, 30))

		totals, count, err := f.txns.SpendingByMethod(ctx, u.ID, day, day.AddDate(0, 0, 6))
		if err != nil {
			t.Fatal(err)
		}
		if count != 2 || totals[domain.MethodCard] != 3_000 {
			t.Errorf("expected 2 card withdrawals totalling 3000, got %d %v", count, totals)
		}

		repo := store.NewAnalysisRepository(f.db)
		a := &domain.Analysis{
			UserID: u.ID, About: domain.TotalSpending, Type: domain.Weekly,
			PeriodStart: day, PeriodEnd: day.AddDate(0, 0, 13), Description: "first", CurrentTotal: 3_000,
		}
		created, err := repo.Upsert(ctx, a)
		if err != nil || !created {
			t.Fatalf("expected insert, got created=%v err=%v", created, err)
		}
		firstID := a.ID

		a.Description = "second"
		created, err = repo.Upsert(ctx, a)
		if err != nil || created {
			t.Fatalf("expected update, got created=%v err=%v", created, err)
		}
		list, err := repo.ListByUser(ctx, u.ID)
		if err != nil || len(list) != 1 || list[0].ID != firstID || list[0].Description != "second" {
			t.Errorf("unexpected analyses %+v (%v)", list, err)
		}
	})

	t.Run("notifications", func(t *testing.T) {
		u, _ := f.account(t, ctx, 0)
		other, _ := f.account(t, ctx, 0)
		repo := store.NewNotificationRepository(f.db)

		older := &domain.Notification{UserID: u.ID, Message: "older"}
		newer := &domain.Notification{UserID: u.ID, Message: "newer"}
		for _, n := range []*domain.Notification{older, newer} {
			if err := repo.Create(ctx, n); err != nil {
				t.Fatal(err)
			}
		}

		unread, err := repo.ListUnread(ctx, u.ID)
		if err != nil || len(unread) != 2 || unread[0].ID != newer.ID {
			t.Fatalf("expected newest first, got %+v (%v)", unread, err)
		}
		if _, err := repo.MarkRead(ctx, other.ID, older.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("foreign notification: expected not found, got %v", err)
		}
		n, err := repo.MarkRead(ctx, u.ID, older.ID)
		if err != nil || !n.IsRead {
			t.Fatalf("mark read: %+v %v", n, err)
		}
		unread, _ = repo.ListUnread(ctx, u.ID)
		if len(unread) != 1 {
			t.Errorf("expected one unread notification, got %d", len(unread))
		}
	})

	t.Run("account update and cascade delete", func(t *testing.T) {
		_, acc := f.account(t, ctx, 500)
		txn := f.record(t, ctx, acc.ID, 100, domain.Deposit, day)

		acc.Number = "999-99"
		acc.Type = domain.Savings
		if err := f.accounts.UpdateDetails(ctx, acc); err != nil {
			t.Fatal(err)
		}
		got, err := f.accounts.GetByID(ctx, acc.ID)
		if err != nil || got.Number != "999-99" || got.Balance != 600 {
			t.Errorf("unexpected account after update %+v (%v)", got, err)
		}

		if err := f.accounts.Delete(ctx, acc.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := f.txns.GetByID(ctx, txn.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("transactions must be removed with their account, got %v", err)
		}
		if err := f.accounts.Delete(ctx, acc.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected not found on second delete, got %v", err)
		}
	})

	t.Run("lock requires a transaction", func(t *testing.T) {
		_, acc := f.account(t, ctx, 0)
		if _, err := f.accounts.Lock(ctx, acc.ID); err == nil {
			t.Error("lock outside a transaction must fail")
		}
		err := f.db.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := f.accounts.Lock(ctx, acc.ID)
			return err
		})
		if err != nil {
			t.Errorf("lock inside a transaction: %v", err)
		}
	})
}
