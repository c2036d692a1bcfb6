package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

// UserLister yields the users an analysis run covers.
type UserLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// Publisher announces stored analyses. Failures never fail the analysis.
type Publisher interface {
	PublishAnalysis(ctx context.Context, eventType string, a *domain.Analysis) error
}

// Analyzer compares a user's spending in the current period against the previous one.
type Analyzer struct {
	users     UserLister
	spending  domain.SpendingRepository
	analyses  domain.AnalysisRepository
	publisher Publisher
	now       func() time.Time
	log       *zap.Logger
}

func NewAnalyzer(users UserLister, spending domain.SpendingRepository, analyses domain.AnalysisRepository, publisher Publisher, log *zap.Logger) *Analyzer {
	return &Analyzer{
		users:     users,
		spending:  spending,
		analyses:  analyses,
		publisher: publisher,
		now:       time.Now,
		log:       log,
	}
}

// Report summarizes one run over all users.
type Report struct {
	Type     domain.AnalysisType `json:"type"`
	Analyzed int                 `json:"analyzed"`
	Skipped  int                 `json:"skipped"`
	Failed   int                 `json:"failed"`
}

// Run analyzes every user. Users without data in both periods are skipped; a failing
// user is logged and the run continues.
func (a *Analyzer) Run(ctx context.Context, kind domain.AnalysisType) (Report, error) {
	report := Report{Type: kind}
	if !kind.Valid() {
		return report, fmt.Errorf("%w: unknown analysis type %q", domain.ErrInvalidInput, kind)
	}

	ids, err := a.users.ListIDs(ctx)
	if err != nil {
		return report, err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		_, err := a.AnalyzeUser(ctx, id, kind)
		switch {
		case errors.Is(err, domain.ErrNotEnoughData):
			report.Skipped++
			a.log.Debug("analysis skipped", zap.Int64("user_id", id), zap.Error(err))
		case err != nil:
			report.Failed++
			a.log.Error("analysis failed", zap.Int64("user_id", id), zap.Error(err))
		default:
			report.Analyzed++
		}
	}

	a.log.Info("analysis run finished",
		zap.String("type", string(kind)),
		zap.Int("analyzed", report.Analyzed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
	return report, nil
}

// AnalyzeUser stores the user's analysis for the period containing today and publishes
// analysis.created, or analysis.updated when it replaced an earlier run.
func (a *Analyzer) AnalyzeUser(ctx context.Context, userID int64, kind domain.AnalysisType) (*domain.Analysis, error) {
	current, previous, err := Periods(kind, a.now())
	if err != nil {
		return nil, err
	}

	curTotals, curCount, err := a.spending.SpendingByMethod(ctx, userID, current.Start, current.End)
	if err != nil {
		return nil, err
	}
	prevTotals, prevCount, err := a.spending.SpendingByMethod(ctx, userID, previous.Start, previous.End)
	if err != nil {
		return nil, err
	}
	if curCount == 0 || prevCount == 0 {
		return nil, fmt.Errorf("%w: user %d has %d transactions in %s and %d in %s",
			domain.ErrNotEnoughData, userID, curCount, current, prevCount, previous)
	}

	an := &domain.Analysis{
		UserID:        userID,
		About:         domain.TotalSpending,
		Type:          kind,
		PeriodStart:   previous.Start,
		PeriodEnd:     current.End,
		CurrentTotal:  sum(curTotals),
		PreviousTotal: sum(prevTotals),
		Description:   Describe(kind, curTotals, prevTotals),
	}
	created, err := a.analyses.Upsert(ctx, an)
	if err != nil {
		return nil, err
	}

	if a.publisher != nil {
		eventType := domain.AnalysisEventType(created)
		if err := a.publisher.PublishAnalysis(ctx, eventType, an); err != nil {
			a.log.Warn("failed to publish analysis event",
				zap.Int64("analysis_id", an.ID), zap.String("event_type", eventType), zap.Error(err))
		}
	}
	return an, nil
}

// List returns the user's stored analyses, newest period first.
func (a *Analyzer) List(ctx context.Context, userID int64) ([]domain.Analysis, error) {
	return a.analyses.ListByUser(ctx, userID)
}

func sum(totals map[domain.Method]int64) int64 {
	var s int64
	for _, v := range totals {
		s += v
	}
	return s
}

// PercentChange formats (current - previous) / previous with two decimals, e.g. "+20.00%".
// It is "n/a" when there is nothing to compare against.
func PercentChange(previous, current int64) string {
	if previous == 0 {
		return "n/a"
	}
	change := decimal.NewFromInt(current - previous).
		Div(decimal.NewFromInt(previous)).
		Mul(decimal.NewFromInt(100))
	s := change.StringFixed(2) + "%"
	if change.IsPositive() {
		s = "+" + s
	}
	return s
}

// Describe renders the totals and the per method breakdown.
func Describe(kind domain.AnalysisType, current, previous map[domain.Method]int64) string {
	cur, prev := sum(current), sum(previous)

	var b strings.Builder
	fmt.Fprintf(&b, "Total %s spending: %d (previous %d, %s)\n", kind.Display(), cur, prev, PercentChange(prev, cur))
	for _, m := range domain.Methods {
		c, p := current[m], previous[m]
		if c == 0 && p == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %d (previous %d, %s)\n", m, c, p, PercentChange(p, c))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
