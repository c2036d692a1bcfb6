package domain

import "fmt"

// Routing keys of analysis events.
const (
	EventAnalysisCreated = "analysis.created"
	EventAnalysisUpdated = "analysis.updated"
)

// AnalysisEventType picks the routing key for an upserted analysis.
func AnalysisEventType(created bool) string {
	if created {
		return EventAnalysisCreated
	}
	return EventAnalysisUpdated
}

// NotificationMessage is the text a user receives for an analysis event.
func NotificationMessage(eventType, title string) (string, error) {
	switch eventType {
	case EventAnalysisCreated:
		return fmt.Sprintf("%s is ready, check it now!", title), nil
	case EventAnalysisUpdated:
		return fmt.Sprintf("Updated %s is ready, check it now!", title), nil
	default:
		return "", fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, eventType)
	}
}
