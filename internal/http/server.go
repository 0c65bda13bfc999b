// Package http serves the JSON API: transactions, analysis views, AI
// commentary, goals, settings, export/import and backups.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finassist/internal/cache"
	"finassist/internal/services"
)

type Server struct {
	http.Server
	assistant   *services.Assistant
	rateLimiter *rateLimiter

	// viewCache holds marshaled read-view payloads; any mutation clears
	// the whole thing.
	viewCache *cache.LRUCache[[]byte]

	shutdownOnce sync.Once
}

// Simple in-memory rate limiter, per client IP.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter after a quiet minute.
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Up to 60 requests per minute.
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, assistant *services.Assistant) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		assistant:   assistant,
		rateLimiter: newRateLimiter(),
		viewCache:   cache.NewLRUCache[[]byte](100, 5*time.Minute),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /analysis", s.withMiddleware(s.handleTotals))
	mux.HandleFunc("GET /breakdown", s.withMiddleware(s.handleBreakdown))
	mux.HandleFunc("GET /trends", s.withMiddleware(s.handleTrends))
	mux.HandleFunc("GET /insights", s.withMiddleware(s.handleInsights))

	mux.HandleFunc("POST /analyze", s.withMiddleware(s.handleAnalyze))
	mux.HandleFunc("GET /tips", s.withMiddleware(s.handleTips))
	mux.HandleFunc("GET /budget", s.withMiddleware(s.handleBudget))

	mux.HandleFunc("GET /goals", s.withMiddleware(s.handleListGoals))
	mux.HandleFunc("POST /goals", s.withMiddleware(s.handleCreateGoal))
	mux.HandleFunc("DELETE /goals/{id}", s.withMiddleware(s.handleDeleteGoal))
	mux.HandleFunc("POST /goals/{id}/contributions", s.withMiddleware(s.handleContribute))

	mux.HandleFunc("GET /settings/ai", s.withMiddleware(s.handleGetAISettings))
	mux.HandleFunc("PUT /settings/ai", s.withMiddleware(s.handleSaveAISettings))
	mux.HandleFunc("POST /settings/ai/test", s.withMiddleware(s.handleTestAI))
	mux.HandleFunc("GET /settings/ai/status", s.withMiddleware(s.handleAIStatus))
	mux.HandleFunc("GET /settings/preferences", s.withMiddleware(s.handleGetPreferences))
	mux.HandleFunc("PUT /settings/preferences", s.withMiddleware(s.handleSavePreferences))

	mux.HandleFunc("GET /export", s.withMiddleware(s.handleExport))
	mux.HandleFunc("POST /import", s.withMiddleware(s.handleImport))
	mux.HandleFunc("GET /backups", s.withMiddleware(s.handleListBackups))
	mux.HandleFunc("POST /backups", s.withMiddleware(s.handleCreateBackup))
	mux.HandleFunc("POST /backups/{index}/restore", s.withMiddleware(s.handleRestoreBackup))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
