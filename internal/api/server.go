// Package api exposes simulations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/songzhibin97/tokensim/internal/ai"
	"github.com/songzhibin97/tokensim/internal/data"
	"github.com/songzhibin97/tokensim/internal/data/storage"
	"github.com/songzhibin97/tokensim/internal/engine"
	"github.com/songzhibin97/tokensim/internal/observability"
	"github.com/songzhibin97/tokensim/internal/token"
	"github.com/songzhibin97/tokensim/internal/validation"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodyBytes     = 1 << 20
)

// Config wires the collaborators of the server. Analyzer is optional.
type Config struct {
	Addr      string
	Storage   data.SimulationStorage
	Validator validation.Validator
	Metrics   *observability.Metrics
	Analyzer  ai.Analyzer
	Logger    *slog.Logger
}

// Server runs simulations on request and serves stored results.
type Server struct {
	addr      string
	storage   data.SimulationStorage
	validator validation.Validator
	metrics   *observability.Metrics
	analyzer  ai.Analyzer
	logger    *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listenAddr string
}

func NewServer(cfg Config) *Server {
	s := &Server{
		addr:      cfg.Addr,
		storage:   cfg.Storage,
		validator: cfg.Validator,
		metrics:   cfg.Metrics,
		analyzer:  cfg.Analyzer,
		logger:    cfg.Logger,
	}
	if s.storage == nil {
		s.storage = storage.NewMemoryStorage()
	}
	if s.validator == nil {
		s.validator = validation.NewBasicValidator(validation.DefaultLimits())
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics("")
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Handler returns the routes of the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /simulations", s.handleCreate)
	mux.HandleFunc("GET /simulations", s.handleList)
	mux.HandleFunc("GET /simulations/{id}", s.handleGet)
	mux.HandleFunc("GET /simulations/{id}/summary", s.handleSummary)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Addr returns the address the server listens on once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listenAddr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server started", "addr", ln.Addr().String())
	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// CreateRequest is the body of POST /simulations.
type CreateRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Token       *token.Config         `json:"token"`
	Options     *engine.OptionsConfig `json:"options"`
	Seed        uint64                `json:"seed,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	sim, err := s.build(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	runErr := sim.Run()
	s.metrics.ObserveSimulation(sim, time.Since(start), runErr)
	if runErr != nil {
		s.logger.Error("failed to run simulation", "id", sim.ID, "err", runErr)
		writeError(w, http.StatusInternalServerError, "failed to run simulation")
		return
	}

	if err := s.persist(r.Context(), sim); err != nil {
		s.logger.Error("failed to store simulation", "id", sim.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store simulation")
		return
	}

	writeJSON(w, http.StatusCreated, sim)
}

func (s *Server) build(req CreateRequest) (*engine.Simulation, error) {
	if req.Token == nil {
		return nil, engine.ErrMissingToken
	}
	if req.Options == nil {
		return nil, engine.ErrMissingOptions
	}

	tk, err := token.New(*req.Token)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	opts, err := engine.NewOptions(*req.Options)
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	if err := s.validator.Validate(tk, opts); err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		Name:        req.Name,
		Description: req.Description,
		Token:       tk,
		Options:     opts,
		Logger:      s.logger,
		Rand:        engine.NewRand(req.Seed),
	})
}

func (s *Server) persist(ctx context.Context, sim *engine.Simulation) error {
	if err := s.storage.SaveSimulation(ctx, sim); err != nil {
		return err
	}
	return s.storage.SaveIntervalReports(ctx, sim)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sim, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	sims, err := s.storage.ListSimulations(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list simulations", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list simulations")
		return
	}
	writeJSON(w, http.StatusOK, sims)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "report narration is not configured")
		return
	}

	sim, ok := s.load(w, r)
	if !ok {
		return
	}

	summary, err := s.analyzer.SummarizeSimulation(r.Context(), sim)
	if errors.Is(err, ai.ErrNotCompleted) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("failed to summarize simulation", "id", sim.ID, "err", err)
		writeError(w, http.StatusBadGateway, "failed to summarize simulation")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*engine.Simulation, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid simulation id")
		return nil, false
	}

	sim, err := s.storage.GetSimulation(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "simulation not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("failed to load simulation", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load simulation")
		return nil, false
	}
	return sim, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
