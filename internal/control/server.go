package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gabrielschull/TraderML/internal/engine"
	"github.com/gabrielschull/TraderML/internal/logger"
	"github.com/gabrielschull/TraderML/internal/metrics"
	"github.com/gabrielschull/TraderML/internal/strategy"
	"github.com/gabrielschull/TraderML/internal/types"
)

const dateLayout = "2006-01-02"

// Strategist is the controller surface the HTTP layer needs.
type Strategist interface {
	Configure(ctx context.Context, patch strategy.Patch) (bool, error)
	StartBacktest(ctx context.Context, patch strategy.Patch, start, end time.Time) (types.BacktestResult, error)
	Params() strategy.Params
}

// Server exposes the strategy control API.
type Server struct {
	strategist Strategist
	mux        *http.ServeMux
}

// New builds the server and its routes. The metrics endpoint is mounted
// alongside the control routes so one listener serves both.
func New(strategist Strategist) *Server {
	s := &Server{strategist: strategist, mux: http.NewServeMux()}
	s.mux.HandleFunc("/update_params", s.handleUpdateParams)
	s.mux.HandleFunc("/start", s.handleStart)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", metrics.Handler())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	withCORS(s.mux).ServeHTTP(w, r)
}

type startRequest struct {
	strategy.Patch
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type updateResponse struct {
	Status  string          `json:"status"`
	Created bool            `json:"created"`
	Params  strategy.Params `json:"params"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleUpdateParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Same body shape as /start; any date fields are accepted and ignored.
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.strategist.Configure(r.Context(), req.Patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, updateResponse{
		Status:  "ok",
		Created: created,
		Params:  s.strategist.Params(),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}
	if !start.Before(end) {
		writeError(w, http.StatusBadRequest, "start_date must be before end_date")
		return
	}

	result, err := s.strategist.StartBacktest(r.Context(), req.Patch, start, end)
	switch {
	case errors.Is(err, engine.ErrNotConfigured):
		writeError(w, http.StatusNotFound, "Strategy not initialized. Call /update_params first.")
		return
	case errors.Is(err, strategy.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logger.ErrorWithErr(r.Context(), "Backtest request failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorWithErr(context.Background(), "Writing response failed", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
