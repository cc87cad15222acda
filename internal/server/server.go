// Package server exposes the dispute assistant over HTTP: classification,
// dispute CRUD with history, trends, duplicate scanning, and a
// natural-language chat endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/disputekit/disputekit/internal/common"
	"github.com/disputekit/disputekit/internal/dedupe"
	"github.com/disputekit/disputekit/internal/llm"
	"github.com/disputekit/disputekit/internal/model"
	"github.com/disputekit/disputekit/internal/pipeline"
	"github.com/disputekit/disputekit/internal/service"
)

// Config holds server configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Server wires the pipeline, detector, and storage behind HTTP handlers.
type Server struct {
	storage  service.Storage
	pipeline *pipeline.Pipeline
	detector *dedupe.Detector
	chat     llm.Client
	logger   *slog.Logger
	cfg      Config
}

// New creates a server. The chat client may be nil; the chat endpoint then
// reports itself unavailable.
func New(cfg Config, store service.Storage, p *pipeline.Pipeline, detector *dedupe.Detector, chat llm.Client, logger *slog.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if detector == nil {
		detector = dedupe.NewDetector(0, logger)
	}
	return &Server{
		cfg:      cfg,
		storage:  store,
		pipeline: p,
		detector: detector,
		chat:     chat,
		logger:   logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/disputes", s.handleClassifyDispute)
	mux.HandleFunc("GET /api/disputes", s.handleListDisputes)
	mux.HandleFunc("GET /api/disputes/{id}", s.handleGetDispute)
	mux.HandleFunc("PUT /api/disputes/{id}", s.handleUpdateStatus)
	mux.HandleFunc("GET /api/trends", s.handleTrends)
	mux.HandleFunc("GET /api/duplicates", s.handleDuplicates)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	return newCORSMiddleware(s.cfg.AllowedOrigins...).wrap(mux)
}

// ListenAndServe runs the server until the context is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           http.TimeoutHandler(s.Handler(), s.cfg.RequestTimeout, `{"error":"request timed out"}`),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type classifyRequest struct {
	Description string `json:"description"`
	CustomerID  string `json:"customer_id"`
	TxnID       string `json:"txn_id"`
}

func (s *Server) handleClassifyDispute(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	record, err := s.pipeline.Classify(r.Context(), req.Description, req.CustomerID, req.TxnID)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	if err := s.storage.SaveDispute(r.Context(), record); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListDisputes(w http.ResponseWriter, r *http.Request) {
	filter := service.DisputeFilter{}

	if raw := r.URL.Query().Get("category"); raw != "" {
		category, err := model.ParseCategory(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		filter.Category = &category
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.DisputeStatus(raw)
		if !status.Valid() {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid status: %q", raw))
			return
		}
		filter.Status = &status
	}

	disputes, err := s.storage.ListDisputes(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, disputes)
}

func (s *Server) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	disputeID := r.PathValue("id")

	record, err := s.storage.GetDispute(r.Context(), disputeID)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	history, err := s.storage.GetDisputeHistory(r.Context(), disputeID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"details": record,
		"history": history,
	})
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	disputeID := r.PathValue("id")

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	status := model.DisputeStatus(req.Status)
	if !status.Valid() {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid status: %q", req.Status))
		return
	}

	if err := s.storage.UpdateDisputeStatus(r.Context(), disputeID, status); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Dispute %s status updated to %s", disputeID, status),
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := s.storage.CategoryTrends(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.storage.ListTransactions(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	pairs, skipped := s.detector.Scan(transactions)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"pairs":   pairs,
		"skipped": skipped,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps application errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrExplanationUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrArtifactNotLoaded), errors.Is(err, common.ErrDimensionMismatch):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
