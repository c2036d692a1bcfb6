package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

var (
	transactionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_recorded_total",
		Help: "Transactions committed to the ledger",
	}, []string{"direction"})

	validationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_validation_failures_total",
		Help: "Ledger requests rejected by business rules",
	}, []string{"reason"})
)

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	default:
		return "invalid_input"
	}
}
