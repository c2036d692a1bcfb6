package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.Use(withRequestID, h.instrument)

	apiV1.HandleFunc("/users", h.RegisterUser).Methods(http.MethodPost)
	apiV1.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)

	apiV1.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost)
	apiV1.HandleFunc("/accounts", h.ListAccounts).Methods(http.MethodGet)
	apiV1.HandleFunc("/accounts/{id}", h.GetAccount).Methods(http.MethodGet)
	apiV1.HandleFunc("/accounts/{id}", h.UpdateAccount).Methods(http.MethodPatch)
	apiV1.HandleFunc("/accounts/{id}", h.DeleteAccount).Methods(http.MethodDelete)

	apiV1.HandleFunc("/transactions", h.RecordTransaction).Methods(http.MethodPost)
	apiV1.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet)
	apiV1.HandleFunc("/transactions/{id}", h.GetTransaction).Methods(http.MethodGet)
	apiV1.HandleFunc("/transactions/{id}", h.AmendTransaction).Methods(http.MethodPatch)
	apiV1.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods(http.MethodDelete)

	apiV1.HandleFunc("/analyses", h.ListAnalyses).Methods(http.MethodGet)
	apiV1.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
	apiV1.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods(http.MethodPatch)

	return r
}
