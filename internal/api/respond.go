package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/models"
)

const (
	userIDHeader = "X-User-ID"
	maxBodyBytes = 1 << 20
)

var (
	errMissingCaller = errors.New("missing caller identity")
	errReplayGone    = errors.New("transaction recorded under this Idempotency-Key was deleted")
)

type ctxKey int

const requestIDKey ctxKey = iota

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code, name, msg := classify(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("request_id", requestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	h.respondJSON(w, code, models.ErrorResponse{Error: name, Message: msg, RequestID: requestID(r.Context())})
}

// classify maps an error to status code, error code and client facing message.
func classify(err error) (int, string, string) {
	var storageErr *domain.StorageError
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "invalid_amount", err.Error()
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "insufficient_balance", err.Error()
	case errors.Is(err, domain.ErrIdempotencyMismatch):
		return http.StatusUnprocessableEntity, "idempotency_key_reused", "Idempotency-Key was already used with a different payload"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input", err.Error()
	case errors.Is(err, errMissingCaller):
		return http.StatusUnauthorized, "unauthorized", err.Error()
	case errors.Is(err, errReplayGone):
		return http.StatusGone, "transaction_deleted", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, "request_in_progress", "a request with this Idempotency-Key is in progress"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict", err.Error()
	case errors.As(err, &storageErr):
		return http.StatusServiceUnavailable, "storage_unavailable", "storage is temporarily unavailable, retry later"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable request body", domain.ErrInvalidInput)
	}
	return body, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q is not a valid id", domain.ErrInvalidInput, name, raw)
	}
	return id, nil
}

// callerID reads the authenticated user from the X-User-ID header.
func callerID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s header is required", errMissingCaller, userIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q is not a valid user id", errMissingCaller, userIDHeader, raw)
	}
	return id, nil
}
