package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
)

// writeQuery wraps data in the standard envelope and writes it.
func (s *Server) writeQuery(w http.ResponseWriter, data interface{}) {
	status := s.pool.Status()

	response := QueryResponse{
		Data:        data,
		LastFetched: status.LastFetched,
		Stale:       status.Stale,
		Ready:       status.Ready,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// writeError writes an ErrorResponse with the given HTTP status.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// writeQueryError maps a read-path error to its HTTP shape. A never-hydrated
// registry answers 503 until the first poll succeeds.
func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, poolerrors.ErrNotReady) {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleMembers handles GET /api/v1/pool/members?category=<category>
func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("category")
	if raw == "" {
		members, err := s.pool.Members()
		if err != nil {
			s.writeQueryError(w, err)
			return
		}
		s.writeQuery(w, members)
		return
	}

	category, err := pool.ParseCategory(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", raw))
		return
	}

	members, err := s.pool.MembersByCategory(category)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	s.writeQuery(w, members)
}

// handleMember handles GET /api/v1/pool/members/{address}
func (s *Server) handleMember(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	member, found, err := s.pool.Member(address)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("member %s not found", address))
		return
	}
	s.writeQuery(w, member)
}

// handleStats handles GET /api/v1/pool/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.pool.Stats()
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	s.writeQuery(w, stats)
}

// handleEra handles GET /api/v1/era
func (s *Server) handleEra(w http.ResponseWriter, r *http.Request) {
	state, err := s.pool.EraState()
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	s.writeQuery(w, EraView{
		EraIndex:        state.EraIndex,
		EraLength:       state.EraLength,
		EraStartBlock:   state.EraStartBlock,
		CurrentBlock:    state.CurrentBlock,
		BlocksRemaining: state.BlocksRemaining(),
		RotationCrossed: state.RotationCrossed(),
		Progress:        state.Progress(),
	})
}

// handleActiveSet handles GET /api/v1/validators/active
func (s *Server) handleActiveSet(w http.ResponseWriter, r *http.Request) {
	set, err := s.pool.ActiveSet()
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	s.writeQuery(w, set)
}

// handleHistory handles GET /api/v1/history/{address}?from=<era>&to=<era>
//
// The selection audit is backed by local persistence, so it stays available
// while the registry is not ready; the envelope's ready flag tells the two
// states apart.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	view := HistoryView{
		Address: address,
		Eras:    s.history.HistoryOf(address),
	}
	if last, ok := s.history.LastSelected(address); ok {
		view.LastSelected = &last
	}

	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		from, err := parseEraParam(q.Get("from"), "from")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		to, err := parseEraParam(q.Get("to"), "to")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rate := s.history.ParticipationRate(address, from, to)
		view.ParticipationRate = &rate
	}

	s.writeQuery(w, view)
}

func parseEraParam(raw, name string) (uint32, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s parameter is required when querying a participation range", name)
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s era %q", name, raw)
	}
	return uint32(v), nil
}
