package api

import (
	"net/http"

	"github.com/punchamoorthee/ledgerbook/internal/models"
)

func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	analyses, err := h.analyses.List(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]models.AnalysisResponse, 0, len(analyses))
	for i := range analyses {
		out = append(out, models.NewAnalysisResponse(&analyses[i]))
	}
	h.respondJSON(w, http.StatusOK, out)
}

// ListNotifications returns the caller's unread notifications, newest first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	notes, err := h.notifications.ListUnread(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]models.NotificationResponse, 0, len(notes))
	for i := range notes {
		out = append(out, models.NewNotificationResponse(&notes[i]))
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	n, err := h.notifications.MarkRead(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.NewNotificationResponse(n))
}
