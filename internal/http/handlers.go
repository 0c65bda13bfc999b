package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"finassist/internal/core"
	"finassist/internal/ledger"
	"finassist/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses: validation failures
// are 422, missing records 404, a duplicate analysis flight 409.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrAnalysisInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyDescription):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

// cachedView serves a marshaled read view from the LRU, computing and
// caching it on miss.
func (s *Server) cachedView(w http.ResponseWriter, r *http.Request, compute func() (any, error)) {
	key := r.URL.Path
	if payload, ok := s.viewCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}

	v, err := compute()
	if err != nil {
		writeError(w, err)
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		writeError(w, err)
		return
	}
	s.viewCache.Set(key, payload)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) invalidateViews() {
	s.viewCache.Clear()
}

type createTransactionRequest struct {
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Timestamp   *time.Time  `json:"timestamp,omitempty"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !readJSON(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid amount: " + err.Error()})
		return
	}

	t := core.Transaction{
		Type:        core.TransactionType(req.Type),
		Amount:      core.Money{Cents: cents},
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Timestamp != nil {
		t.Timestamp = *req.Timestamp
	}

	saved, err := s.assistant.AddTransaction(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateViews()
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.assistant.ListTransactions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.assistant.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	s.cachedView(w, r, func() (any, error) {
		return s.assistant.Totals(r.Context())
	})
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	s.cachedView(w, r, func() (any, error) {
		return s.assistant.CategoryBreakdown(r.Context())
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	s.cachedView(w, r, func() (any, error) {
		return s.assistant.MonthlyTrends(r.Context())
	})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	s.cachedView(w, r, func() (any, error) {
		return s.assistant.Insights(r.Context())
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	result, err := s.assistant.Analyze(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTips(w http.ResponseWriter, r *http.Request) {
	tips, source, err := s.assistant.SavingTips(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tips":   tips,
		"source": source,
	})
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	budget, source, err := s.assistant.SuggestBudget(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"budget": budget,
		"source": source,
	})
}

type createGoalRequest struct {
	Name     string      `json:"name"`
	Target   json.Number `json:"target"`
	Deadline time.Time   `json:"deadline"`
	Category string      `json:"category"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if !readJSON(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Target.String())
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid target: " + err.Error()})
		return
	}

	g := core.Goal{
		Name:     req.Name,
		Target:   core.Money{Cents: cents},
		Deadline: req.Deadline,
		Category: req.Category,
	}
	saved, err := s.assistant.AddGoal(r.Context(), g)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.assistant.ListGoals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.assistant.DeleteGoal(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type contributeRequest struct {
	Amount json.Number `json:"amount"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req contributeRequest
	if !readJSON(w, r, &req) {
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid amount: " + err.Error()})
		return
	}
	goal, err := s.assistant.ContributeToGoal(r.Context(), r.PathValue("id"), core.Money{Cents: cents})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) handleGetAISettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.assistant.AISettings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveAISettings(w http.ResponseWriter, r *http.Request) {
	var settings ledger.AISettings
	if !readJSON(w, r, &settings) {
		return
	}
	if err := s.assistant.SaveAISettings(r.Context(), settings); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleTestAI(w http.ResponseWriter, r *http.Request) {
	ok, message := s.assistant.TestAIConnection(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": ok,
		"message": message,
	})
}

func (s *Server) handleAIStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.assistant.AIStatus(r.Context()))
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.assistant.Preferences(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleSavePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs ledger.UserPreferences
	if !readJSON(w, r, &prefs) {
		return
	}
	if err := s.assistant.SavePreferences(r.Context(), prefs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	bundle, err := s.assistant.ExportData(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=finassist-export.json")
	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var bundle ledger.ExportBundle
	if !readJSON(w, r, &bundle) {
		return
	}
	if err := s.assistant.ImportData(r.Context(), bundle); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateViews()
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := s.assistant.Backups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if backups == nil {
		backups = []ledger.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := s.assistant.CreateBackup(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, backup)
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid backup index"})
		return
	}
	if err := s.assistant.RestoreBackup(r.Context(), index); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateViews()
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}
