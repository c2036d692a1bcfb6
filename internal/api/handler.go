package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/models"
)

const maxIdempotencyKeyLength = 255

type LedgerService interface {
	RecordTransaction(ctx context.Context, in domain.RecordInput) (*domain.Transaction, error)
	RecordTransactionIdempotent(ctx context.Context, in domain.RecordInput, key, reqHash string) (*domain.Transaction, *domain.IdempotencyRecord, error)
	AmendTransaction(ctx context.Context, id, newAmount int64) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
}

type AccountService interface {
	CreateAccount(ctx context.Context, in domain.NewAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, []domain.Transaction, error)
	ListAccounts(ctx context.Context, userID int64) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, id int64, patch domain.AccountPatch) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
}

type UserService interface {
	RegisterUser(ctx context.Context, in domain.NewUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type NotificationService interface {
	ListUnread(ctx context.Context, userID int64) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) (*domain.Notification, error)
}

type AnalysisLister interface {
	List(ctx context.Context, userID int64) ([]domain.Analysis, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups everything the handlers call into.
type Services struct {
	Ledger        LedgerService
	Accounts      AccountService
	Users         UserService
	Notifications NotificationService
	Analyses      AnalysisLister
	DB            Pinger
}

type Handler struct {
	ledger        LedgerService
	accounts      AccountService
	users         UserService
	notifications NotificationService
	analyses      AnalysisLister
	db            Pinger
	log           *zap.Logger
}

func NewHandler(s Services, log *zap.Logger) *Handler {
	return &Handler{
		ledger:        s.Ledger,
		accounts:      s.Accounts,
		users:         s.Users,
		notifications: s.Notifications,
		analyses:      s.Analyses,
		db:            s.DB,
		log:           log,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn("health check failed", zap.Error(err))
			h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RecordTransaction handles POST /transactions. With an Idempotency-Key header the body hash
// is remembered and a repeated request replays the stored response with 200. The replayed
// body is the response as first sent, so a later amendment is not reflected in it. Once the
// transaction has been deleted the replay answers 410.
func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.RecordTransactionRequest
	body, err := h.decode(w, r, &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey == "" {
		txn, err := h.ledger.RecordTransaction(r.Context(), in)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respondCreated(w, txn)
		return
	}
	if len(idemKey) > maxIdempotencyKeyLength {
		h.respondError(w, r, fmt.Errorf("%w: Idempotency-Key longer than %d characters", domain.ErrInvalidInput, maxIdempotencyKeyLength))
		return
	}

	hash := sha256.Sum256(body)
	txn, replay, err := h.ledger.RecordTransactionIdempotent(r.Context(), in, idemKey, hex.EncodeToString(hash[:]))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if replay != nil {
		if replay.TransactionID == 0 {
			h.respondError(w, r, errReplayGone)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Idempotent-Replayed", "true")
		w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%d", replay.TransactionID))
		w.WriteHeader(http.StatusOK)
		w.Write(replay.ResponseBody)
		return
	}
	h.respondCreated(w, txn)
}

func (h *Handler) respondCreated(w http.ResponseWriter, txn *domain.Transaction) {
	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%d", txn.ID))
	h.respondJSON(w, http.StatusCreated, models.NewTransactionResponse(txn))
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter domain.TransactionFilter
	q := r.URL.Query()

	if v := q.Get("account_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			h.respondError(w, r, fmt.Errorf("%w: account_id %q", domain.ErrInvalidInput, v))
			return
		}
		filter.AccountID = id
	}
	if v := q.Get("date"); v != "" {
		d, err := time.Parse(domain.DateLayout, v)
		if err != nil {
			h.respondError(w, r, fmt.Errorf("%w: date %q is not YYYY-MM-DD", domain.ErrInvalidInput, v))
			return
		}
		filter.Date = &d
	}
	filter.Direction = domain.Direction(q.Get("direction"))

	txns, err := h.ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.NewTransactionResponses(txns))
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	txn, err := h.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.NewTransactionResponse(txn))
}

func (h *Handler) AmendTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req models.AmendTransactionRequest
	if _, err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.Amount == nil {
		h.respondError(w, r, fmt.Errorf("%w: amount is required", domain.ErrInvalidInput))
		return
	}

	txn, err := h.ledger.AmendTransaction(r.Context(), id, *req.Amount)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.NewTransactionResponse(txn))
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.ledger.DeleteTransaction(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads the whole body into dst and returns the raw bytes for hashing.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) ([]byte, error) {
	body, err := readBody(w, r)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput)
	}
	return body, nil
}
