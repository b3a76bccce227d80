// Package api provides the local HTTP surface the presentation layer talks
// to. It exposes the task lifecycle, purchases, reversals, balance, history
// and maintenance operations of the engine, plus /metrics when enabled.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stakedo/stakedo/internal/app/engine"
	"github.com/stakedo/stakedo/internal/domain"
)

// Server is the stakedo HTTP API server.
type Server struct {
	engine         *engine.Engine
	historyLimit   int
	metricsEnabled bool
}

// NewServer creates a new API server over the engine.
func NewServer(e *engine.Engine, historyLimit int) *Server {
	if historyLimit <= 0 {
		historyLimit = 500
	}
	return &Server{engine: e, historyLimit: historyLimit}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/balance", s.handleBalance)

		r.Get("/window", s.handleWindow)
		r.Put("/window", s.handleSetWindow)

		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks", s.handleCreateTask)
		r.Post("/tasks/{id}/complete", s.handleCompleteTask)
		r.Delete("/tasks/{id}", s.handleDeleteTask)

		r.Post("/purchases", s.handlePurchase)
		r.Post("/refunds", s.handleRefund)

		r.Post("/reversals/completion", s.handleRevertCompletion)
		r.Post("/reversals/forfeit", s.handleRevertForfeit)

		r.Get("/history", s.handleHistory)
		r.Get("/ledger", s.handleLedger)

		r.Post("/maintenance/compact", s.handleCompact)
		r.Post("/maintenance/purge", s.handlePurge)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Status ─────────────────────────────────────────────────────────────────

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	win := s.engine.WindowToday()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "stakedo is running",
		"balance":      s.engine.Balance(),
		"window_open":  s.engine.InWindow(),
		"window_start": win.Start,
		"window_end":   win.End,
		"active_tasks": len(s.engine.Tasks()),
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{"balance": s.engine.Balance()})
}

// ─── Window ─────────────────────────────────────────────────────────────────

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	win := s.engine.WindowToday()
	cw := s.engine.Settings().CreationWindow
	writeJSON(w, http.StatusOK, map[string]any{
		"start":       cw.Start,
		"end":         cw.End,
		"open":        s.engine.InWindow(),
		"today_start": win.Start,
		"today_end":   win.End,
	})
}

func (s *Server) handleSetWindow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.SetWindowTimes(req.Start, req.End); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Settings().CreationWindow)
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tasks": s.engine.Tasks()})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string  `json:"description"`
		BuyIn       float64 `json:"buy_in"`
		Payout      float64 `json:"payout"`
	}
	if !decode(w, r, &req) {
		return
	}
	task, err := s.engine.Create(req.Description, req.BuyIn, req.Payout)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Complete(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": s.engine.Balance()})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	penalty, err := s.engine.Delete(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{
		"penalty": penalty,
		"balance": s.engine.Balance(),
	})
}

// ─── Purchases ──────────────────────────────────────────────────────────────

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.RecordPurchase(req.Description, req.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": s.engine.Balance()})
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.RevertPurchase(req.Description, req.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": s.engine.Balance()})
}

// ─── Reversals ──────────────────────────────────────────────────────────────

type reversalRequest struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	BuyIn       float64 `json:"buy_in"`
	Payout      float64 `json:"payout"`
	Restore     bool    `json:"restore"`
}

func (req reversalRequest) snapshot() domain.TaskSnapshot {
	return domain.TaskSnapshot{
		ID:          req.ID,
		Description: req.Description,
		BuyIn:       req.BuyIn,
		Payout:      req.Payout,
	}
}

func (s *Server) handleRevertCompletion(w http.ResponseWriter, r *http.Request) {
	var req reversalRequest
	if !decode(w, r, &req) {
		return
	}
	restored, err := s.engine.RevertCompletion(req.snapshot(), req.Restore)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balance":  s.engine.Balance(),
		"restored": restored,
	})
}

func (s *Server) handleRevertForfeit(w http.ResponseWriter, r *http.Request) {
	var req reversalRequest
	if !decode(w, r, &req) {
		return
	}
	restored, err := s.engine.RevertForfeit(req.snapshot(), req.Restore)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balance":  s.engine.Balance(),
		"restored": restored,
	})
}

// ─── History & Ledger ───────────────────────────────────────────────────────

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := s.engine.History(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := s.engine.LedgerEntries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ledger": entries})
}

// ─── Maintenance ────────────────────────────────────────────────────────────

func (s *Server) handleCompact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RetainDays int `json:"retain_days"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.RetainDays <= 0 {
		writeError(w, http.StatusBadRequest, "retain_days must be positive")
		return
	}
	if err := s.engine.CompactLedger(req.RetainDays); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": s.engine.Balance()})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SaveBalance bool `json:"save_balance"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.PurgeData(req.SaveBalance); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": s.engine.Balance()})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// decode parses the JSON request body, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyDescription),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrWindowClosed):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrMissingDueDate):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
		},
	})
}
