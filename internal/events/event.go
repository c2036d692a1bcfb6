package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

// AnalysisEvent is the JSON body published for analysis.created and analysis.updated.
type AnalysisEvent struct {
	EventID     string `json:"eventId"`
	EventType   string `json:"eventType"`
	AnalysisID  int64  `json:"analysisId"`
	UserID      int64  `json:"userId"`
	About       string `json:"about"`
	Type        string `json:"type"`
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
	OccurredAt  string `json:"occurredAt"`
}

func NewAnalysisEvent(eventType string, a *domain.Analysis, now time.Time) AnalysisEvent {
	return AnalysisEvent{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		AnalysisID:  a.ID,
		UserID:      a.UserID,
		About:       string(a.About),
		Type:        string(a.Type),
		PeriodStart: a.PeriodStart.Format(domain.DateLayout),
		PeriodEnd:   a.PeriodEnd.Format(domain.DateLayout),
		OccurredAt:  now.UTC().Format(time.RFC3339),
	}
}

// errMalformed marks events that can never be processed and must not be redelivered.
var errMalformed = errors.New("malformed event")

// Message validates the event and renders the notification text for it.
func (e AnalysisEvent) Message() (string, error) {
	if e.EventID == "" {
		return "", fmt.Errorf("%w: event ID is required", errMalformed)
	}
	if e.UserID <= 0 {
		return "", fmt.Errorf("%w: user ID is required", errMalformed)
	}
	start, err := time.Parse(domain.DateLayout, e.PeriodStart)
	if err != nil {
		return "", fmt.Errorf("%w: period start %q", errMalformed, e.PeriodStart)
	}
	end, err := time.Parse(domain.DateLayout, e.PeriodEnd)
	if err != nil {
		return "", fmt.Errorf("%w: period end %q", errMalformed, e.PeriodEnd)
	}

	title := domain.Analysis{
		About:       domain.AnalysisAbout(e.About),
		Type:        domain.AnalysisType(e.Type),
		PeriodStart: start,
		PeriodEnd:   end,
	}.Title()
	msg, err := domain.NotificationMessage(e.EventType, title)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errMalformed, err)
	}
	return msg, nil
}

// Notifier stores a notification for a user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string) (*domain.Notification, error)
}

func deliver(ctx context.Context, n Notifier, e AnalysisEvent) (*domain.Notification, error) {
	msg, err := e.Message()
	if err != nil {
		return nil, err
	}
	return n.Notify(ctx, e.UserID, msg)
}
