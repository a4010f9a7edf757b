// Package server exposes the assistant over HTTP: intake routing, direct
// simulation and receipt endpoints, history listings, and collective orders.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bazaarbrain/assistant/internal/collective"
	"github.com/bazaarbrain/assistant/internal/intake"
	"github.com/bazaarbrain/assistant/internal/model"
	"github.com/bazaarbrain/assistant/internal/stats"
	"github.com/bazaarbrain/assistant/internal/store"
)

const maxReceiptUpload = 10 << 20 // 10 MiB

// IntentRouter dispatches one classified request.
type IntentRouter interface {
	Route(ctx context.Context, userID, input string) model.Record
}

// Deps holds the collaborators the HTTP layer fronts.
type Deps struct {
	Router    IntentRouter
	Simulator intake.Simulator
	Extractor intake.Extractor
	Ledger    *collective.Ledger
	Store     store.Store

	AllowedOrigins []string
}

// New builds the HTTP handler with middleware and all routes mounted.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID"},
	}))

	s := &server{deps: deps}

	r.Get("/health", s.handleHealth)
	r.Post("/intake", s.handleIntake)
	r.Post("/simulate", s.handleSimulate)
	r.Get("/simulations", s.handleListSimulations)
	r.Post("/receipts", s.handleReceipt)
	r.Get("/transactions", s.handleListTransactions)
	r.Post("/collective/orders", s.handlePlaceCollectiveOrder)
	r.Get("/collective/orders", s.handleListCollectiveOrders)
	r.Get("/stats", s.handleStats)

	return r
}

type server struct {
	deps Deps
}

// requestLogger emits one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// userID reads the caller identity header, defaulting to anonymous.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			status["db"] = "unavailable"
		} else {
			status["db"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *server) handleIntake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Input == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	result := s.deps.Router.Route(r.Context(), userID(r), req.Input)
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result := s.deps.Simulator.Run(r.Context(), userID(r), req.Query)
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleListSimulations(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}

	sims, err := s.deps.Store.ListSimulations(r.Context(), store.SimulationFilter{UserID: userID(r)})
	if err != nil {
		zap.L().Error("list simulations failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list simulations")
		return
	}
	if sims == nil {
		sims = []model.Simulation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"simulations": sims})
}

// handleReceipt accepts a multipart image upload, spools it to a temp file,
// and runs the extraction pipeline over it.
func (s *server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxReceiptUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "receipt-*"+filepath.Ext(header.Filename))
	if err != nil {
		zap.L().Error("receipt spool failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		zap.L().Error("receipt spool failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	tmp.Close()

	result, err := s.deps.Extractor.Process(r.Context(), userID(r), tmp.Name())
	if err != nil {
		zap.L().Error("receipt processing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process receipt")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}

	txs, err := s.deps.Store.ListTransactions(r.Context(), store.TransactionFilter{UserID: userID(r)})
	if err != nil {
		zap.L().Error("list transactions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (s *server) handlePlaceCollectiveOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := s.deps.Ledger.Place(r.Context(), userID(r), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *server) handleListCollectiveOrders(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.deps.Ledger.Summaries(r.Context())
	if err != nil {
		zap.L().Error("list collective orders failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list collective orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": summaries})
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}

	report, err := stats.Collect(r.Context(), s.deps.Store)
	if err != nil {
		zap.L().Error("stats collection failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to collect stats")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
