package api

import (
	"net/http"

	"github.com/punchamoorthee/ledgerbook/internal/models"
)

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if _, err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	u, err := h.users.RegisterUser(r.Context(), req.ToInput())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, models.NewUserResponse(u))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	u, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.NewUserResponse(u))
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req models.CreateAccountRequest
	if _, err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	acc, err := h.accounts.CreateAccount(r.Context(), req.ToInput(userID))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, models.NewAccountResponse(acc))
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	accs, err := h.accounts.ListAccounts(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]models.AccountResponse, 0, len(accs))
	for i := range accs {
		out = append(out, models.NewAccountResponse(&accs[i]))
	}
	h.respondJSON(w, http.StatusOK, out)
}

// GetAccount returns the account together with its transactions in sequence order.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	acc, txns, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.NewAccountDetailResponse(acc, txns))
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req models.UpdateAccountRequest
	if _, err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	acc, err := h.accounts.UpdateAccount(r.Context(), id, req.ToPatch())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.NewAccountResponse(acc))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
