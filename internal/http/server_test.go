package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/ai"
	"finassist/internal/core"
	"finassist/internal/ledger"
	ledgermem "finassist/internal/ledger/memory"
	"finassist/internal/services"
)

type noCreds struct{}

func (noCreds) Credentials(context.Context) (ai.Credentials, error) {
	return ai.Credentials{}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	advisor := ai.NewAdvisor(ai.NewClient(nil), noCreds{})
	assistant := services.NewAssistant(ledgermem.New(), advisor)
	srv := NewServer(":0", assistant)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())
}

func TestCreateAndListTransactions(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/transactions", map[string]any{
		"type":     "expense",
		"amount":   499.99,
		"category": "food",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[core.Transaction](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(49999), created.Amount.Cents)
	assert.Equal(t, "Food & Dining", created.Description)

	rec = doJSON(t, srv, http.MethodGet, "/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]core.Transaction](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"bad amount", map[string]any{"type": "expense", "amount": 0, "category": "food"}, http.StatusUnprocessableEntity},
		{"bad type", map[string]any{"type": "loan", "amount": 10, "category": "food"}, http.StatusUnprocessableEntity},
		{"empty category", map[string]any{"type": "expense", "amount": 10, "category": ""}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/transactions", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString("{broken"))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTransaction(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/transactions", map[string]any{
		"type": "expense", "amount": 10, "category": "food",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[core.Transaction](t, rec)

	rec = doJSON(t, srv, http.MethodDelete, "/transactions/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/transactions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalysisViewsReflectMutations(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/transactions", map[string]any{
		"type": "income", "amount": 3000, "category": "income",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := decode[map[string]any](t, rec)
	assert.InDelta(t, 3000.0, totals["income"], 0.001)

	// Served from cache the second time, same payload.
	rec2 := doJSON(t, srv, http.MethodGet, "/analysis", nil)
	assert.Equal(t, rec.Body.String(), rec2.Body.String())

	// A mutation invalidates the cached view.
	rec = doJSON(t, srv, http.MethodPost, "/transactions", map[string]any{
		"type": "expense", "amount": 1000, "category": "food",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals = decode[map[string]any](t, rec)
	assert.InDelta(t, 1000.0, totals["expenses"], 0.001)
}

func TestGoalEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/goals", map[string]any{
		"name":     "Emergency Fund",
		"target":   1000,
		"deadline": time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		"category": "savings",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	goal := decode[core.Goal](t, rec)
	require.NotEmpty(t, goal.ID)

	// Contributions clamp at the target.
	rec = doJSON(t, srv, http.MethodPost, "/goals/"+goal.ID+"/contributions", map[string]any{"amount": 800})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, http.MethodPost, "/goals/"+goal.ID+"/contributions", map[string]any{"amount": 800})
	require.Equal(t, http.StatusOK, rec.Code)
	goal = decode[core.Goal](t, rec)
	assert.Equal(t, int64(100000), goal.CurrentAmount.Cents)

	rec = doJSON(t, srv, http.MethodDelete, "/goals/"+goal.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/goals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestAISettingsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/settings/ai", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decode[ledger.AISettings](t, rec)
	assert.Equal(t, "groq", settings.Provider)

	settings.Enabled = false
	rec = doJSON(t, srv, http.MethodPut, "/settings/ai", settings)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/settings/ai", nil)
	settings = decode[ledger.AISettings](t, rec)
	assert.False(t, settings.Enabled)

	rec = doJSON(t, srv, http.MethodGet, "/settings/ai/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[ai.Status](t, rec)
	assert.Equal(t, ai.SourceLocal, status.Type)
}

func TestExportImportEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/transactions", map[string]any{
		"type": "expense", "amount": 10, "category": "food",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "finassist-export.json")
	bundle := decode[ledger.ExportBundle](t, rec)
	require.Len(t, bundle.Transactions, 1)
	assert.Equal(t, ledger.SchemaVersion, bundle.SchemaVersion)

	other := newTestServer(t)
	rec = doJSON(t, other, http.MethodPost, "/import", bundle)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, other, http.MethodGet, "/transactions", nil)
	list := decode[[]core.Transaction](t, rec)
	assert.Len(t, list, 1)
}

func TestBackupEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/transactions", map[string]any{
		"type": "expense", "amount": 10, "category": "food",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/backups", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	backups := decode[[]ledger.Backup](t, rec)
	require.Len(t, backups, 1)

	rec = doJSON(t, srv, http.MethodPost, "/backups/0/restore", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/backups/9/restore", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/backups/abc/restore", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/transactions", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRateLimiterBlocksWrites(t *testing.T) {
	srv := newTestServer(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 65; i++ {
		req := httptest.NewRequest(http.MethodPost, "/transactions",
			bytes.NewBufferString(fmt.Sprintf(`{"type":"expense","amount":1,"category":"food","description":"n%d"}`, i)))
		req.Header.Set("X-Forwarded-For", "10.0.0.1")
		last = httptest.NewRecorder()
		srv.Handler.ServeHTTP(last, req)
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))

	// Reads are never rate limited.
	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		assert.True(t, rl.allow("1.2.3.4"), "request %d should pass", i)
	}
	assert.False(t, rl.allow("1.2.3.4"))

	// A different client is unaffected.
	assert.True(t, rl.allow("5.6.7.8"))
}
