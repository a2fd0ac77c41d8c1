package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes for the API server
func (s *Server) setupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// API v1 endpoints
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/pool/members", s.handleMembers).Methods(http.MethodGet)
	v1.HandleFunc("/pool/members/{address}", s.handleMember).Methods(http.MethodGet)
	v1.HandleFunc("/pool/stats", s.handleStats).Methods(http.MethodGet)
	v1.HandleFunc("/era", s.handleEra).Methods(http.MethodGet)
	v1.HandleFunc("/validators/active", s.handleActiveSet).Methods(http.MethodGet)
	v1.HandleFunc("/history/{address}", s.handleHistory).Methods(http.MethodGet)
	v1.HandleFunc("/watch", s.handleWatch).Methods(http.MethodGet)

	v1.HandleFunc("/intents/join", s.handleJoin).Methods(http.MethodPost)
	v1.HandleFunc("/intents/leave", s.handleLeave).Methods(http.MethodPost)
	v1.HandleFunc("/intents/recategorize", s.handleRecategorize).Methods(http.MethodPost)

	return router
}
