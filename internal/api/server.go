// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

// Package api exposes the pawcore diagnostics surface: transaction
// tracking snapshots, idempotency statistics, prometheus metrics and a
// health probe. It is read-only; business operations enter the core
// through the coordinator, not through HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/pawhaven/pawcore/internal/correlation"
	"github.com/pawhaven/pawcore/internal/log"
	"github.com/pawhaven/pawcore/internal/txn"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server serves the diagnostics API.
type Server struct {
	coordinator *txn.Coordinator
	contexts    *correlation.Store
	logger      zerolog.Logger
	metricsOn   bool
}

// Config holds the server's collaborators.
type Config struct {
	Coordinator    *txn.Coordinator
	Contexts       *correlation.Store
	MetricsEnabled bool
}

// NewServer creates a diagnostics server.
func NewServer(cfg Config) *Server {
	return &Server{
		coordinator: cfg.Coordinator,
		contexts:    cfg.Contexts,
		logger:      log.WithComponent("api"),
		metricsOn:   cfg.MetricsEnabled,
	}
}

// Router builds the chi router with the canonical middleware stack.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(httprate.LimitByIP(60, time.Minute))
	r.Use(CorrelationMiddleware(s.contexts))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions/active", s.handleActiveTransactions)
		r.Get("/transactions/completed", s.handleCompletedTransactions)
		r.Get("/idempotency/stats", s.handleIdempotencyStats)
	})
	if s.metricsOn {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleActiveTransactions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.coordinator.Active())
}

func (s *Server) handleCompletedTransactions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.coordinator.Completed())
}

func (s *Server) handleIdempotencyStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.coordinator.IdempotencyStats())
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger := log.WithContext(r.Context(), s.logger)
		logger.Warn().
			Err(err).
			Str("path", r.URL.Path).
			Msg("response encode failed")
	}
}
