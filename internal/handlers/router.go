package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aida/autonomy/internal/engine"
)

// NewRouter wires the API surface onto a mux router.
func NewRouter(eng *engine.Engine) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/decisions", MakeDecision(eng)).Methods(http.MethodPost)
	api.HandleFunc("/decisions/{id}/outcome", ConfirmOutcome(eng)).Methods(http.MethodPost)
	api.HandleFunc("/autonomy/{subject}/{process}", ConfigureAutonomy(eng)).Methods(http.MethodPut)
	api.HandleFunc("/performance", GetPerformance(eng)).Methods(http.MethodGet)

	r.HandleFunc("/health", Health()).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
