package analysis

import (
	"fmt"
	"time"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

// Period is an inclusive range of calendar dates, both at UTC midnight.
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) String() string {
	return p.Start.Format(domain.DateLayout) + " ~ " + p.End.Format(domain.DateLayout)
}

// day keeps the calendar date of t in its own location.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekOf returns the Monday to Sunday week containing t.
func WeekOf(t time.Time) Period {
	offset := (int(t.Weekday()) + 6) % 7
	start := day(t).AddDate(0, 0, -offset)
	return Period{Start: start, End: start.AddDate(0, 0, 6)}
}

// MonthOf returns the first to last day of t's month.
func MonthOf(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// Periods returns the current and the previous period of the given kind for today.
func Periods(kind domain.AnalysisType, today time.Time) (current, previous Period, err error) {
	switch kind {
	case domain.Weekly:
		current = WeekOf(today)
		previous = WeekOf(current.Start.AddDate(0, 0, -1))
	case domain.Monthly:
		current = MonthOf(today)
		previous = MonthOf(current.Start.AddDate(0, 0, -1))
	default:
		return Period{}, Period{}, fmt.Errorf("%w: unknown analysis type %q", domain.ErrInvalidInput, kind)
	}
	return current, previous, nil
}
