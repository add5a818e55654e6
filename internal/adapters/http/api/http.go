// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/okian/drought/internal/adapters/repository"
	"github.com/okian/drought/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SPIDependencies
	RainfallDependencies
	ParamsDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	spiHandler      *SPIHandler
	rainfallHandler *RainfallHandler
	paramsHandler   *ParamsHandler

	limiter *rate.Limiter
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		spiHandler:      NewSPIHandler(deps),
		rainfallHandler: NewRainfallHandler(deps),
		paramsHandler:   NewParamsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux. Health checks are never rate
// limited.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", s.wrap(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/spi", s.wrap(s.spiHandler.HandleGetSPI, "spi"))
	mux.HandleFunc("/rainfall", s.wrap(s.rainfallHandler.HandleGetRainfall, "rainfall"))
	mux.HandleFunc("/params", s.wrap(s.paramsHandler.HandleGetParams, "params"))
}

func (s *Server) wrap(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	if s.limiter != nil {
		next = RateLimitMiddleware(next, s.limiter)
	}
	return MetricsMiddleware(next, endpoint)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeLookupError maps upstream errors to 404 or 500.
func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}

// parseKey reads location, month and timescale query parameters.
func parseKey(r *http.Request) (model.Key, error) {
	q := r.URL.Query()
	loc := strings.TrimSpace(q.Get("location"))
	if loc == "" {
		return model.Key{}, fmt.Errorf("missing location: %w", ErrBadRequest)
	}
	month, err := model.ParseMonth(q.Get("month"))
	if err != nil {
		return model.Key{}, fmt.Errorf("%v: %w", err, ErrBadRequest)
	}
	ts, err := strconv.Atoi(q.Get("timescale"))
	if err != nil || ts < 1 {
		return model.Key{}, fmt.Errorf("invalid timescale %q: %w", q.Get("timescale"), ErrBadRequest)
	}
	return model.Key{Location: loc, Month: month, Timescale: ts}, nil
}

// parseFloat reads a required finite float query parameter. ParseFloat
// accepts "NaN" and "Inf", which are not amounts or SPI values.
func parseFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, ErrBadRequest)
	}
	return v, nil
}

// jsonFloat renders infinities and NaN as strings, which JSON cannot carry.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}
