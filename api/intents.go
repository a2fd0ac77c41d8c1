package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
	"github.com/pezkuwichain/pezkuwi-pool-client/metrics"
	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
)

// decodeIntent parses and minimally validates an intent request body.
func decodeIntent(r *http.Request) (*IntentRequest, error) {
	var req IntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %v", err)
	}
	if req.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	return &req, nil
}

// intentStatus maps the gateway error taxonomy onto HTTP statuses.
func intentStatus(err error) int {
	switch {
	case errors.Is(err, poolerrors.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, poolerrors.ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, poolerrors.ErrNotMember):
		return http.StatusNotFound
	case errors.Is(err, poolerrors.ErrAlreadyMember),
		errors.Is(err, poolerrors.ErrNoOpCategoryChange):
		return http.StatusConflict
	case errors.Is(err, poolerrors.ErrInvalidCategory):
		return http.StatusBadRequest
	case errors.Is(err, poolerrors.ErrForeignSigner):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// intentOutcome labels an intent error for the metrics counter. Violations
// caught before any remote call are rejections; everything else failed in
// flight.
func intentOutcome(err error) string {
	if poolerrors.IsPrecondition(err) ||
		errors.Is(err, poolerrors.ErrNotReady) ||
		errors.Is(err, poolerrors.ErrForeignSigner) {
		return "rejected"
	}
	return "failed"
}

// writeIntentError writes the error and records the metrics outcome.
func (s *Server) writeIntentError(w http.ResponseWriter, kind string, err error) {
	metrics.IntentsSubmittedTotal.WithLabelValues(kind, intentOutcome(err)).Inc()
	s.writeError(w, intentStatus(err), err.Error())
}

// writeIntentAccepted writes the intent reference and records the outcome.
func (s *Server) writeIntentAccepted(w http.ResponseWriter, kind, ref string) {
	metrics.IntentsSubmittedTotal.WithLabelValues(kind, "accepted").Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(IntentResponse{IntentRef: ref})
}

// handleJoin handles POST /api/v1/intents/join
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeIntent(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Category == "" {
		s.writeError(w, http.StatusBadRequest, "category is required")
		return
	}
	category, err := pool.ParseCategory(req.Category)
	if err != nil {
		s.writeIntentError(w, "join", err)
		return
	}

	ref, err := s.gateway.Join(r.Context(), req.Address, category)
	if err != nil {
		s.writeIntentError(w, "join", err)
		return
	}
	s.writeIntentAccepted(w, "join", ref)
}

// handleLeave handles POST /api/v1/intents/leave
func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	req, err := decodeIntent(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref, err := s.gateway.Leave(r.Context(), req.Address)
	if err != nil {
		s.writeIntentError(w, "leave", err)
		return
	}
	s.writeIntentAccepted(w, "leave", ref)
}

// handleRecategorize handles POST /api/v1/intents/recategorize
func (s *Server) handleRecategorize(w http.ResponseWriter, r *http.Request) {
	req, err := decodeIntent(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Category == "" {
		s.writeError(w, http.StatusBadRequest, "category is required")
		return
	}
	category, err := pool.ParseCategory(req.Category)
	if err != nil {
		s.writeIntentError(w, "recategorize", err)
		return
	}

	ref, err := s.gateway.Recategorize(r.Context(), req.Address, category)
	if err != nil {
		s.writeIntentError(w, "recategorize", err)
		return
	}
	s.writeIntentAccepted(w, "recategorize", ref)
}
