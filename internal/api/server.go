package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/synapse-data/product.intel/internal/auth"
	"github.com/synapse-data/product.intel/internal/catalog"
	"github.com/synapse-data/product.intel/internal/db"
	"github.com/synapse-data/product.intel/internal/pipeline"
	"github.com/synapse-data/product.intel/internal/report"
	"github.com/synapse-data/product.intel/internal/units"
	"github.com/synapse-data/product.intel/internal/workflow"
	"github.com/synapse-data/product.intel/internal/wshub"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

const defaultReportProductLimit = 500

// Version is the service version reported by the API root.
const Version = "1.0.0"

type Server struct {
	db          *db.DB
	optimizer   *pipeline.Optimizer
	auth        *auth.Service
	hub         *wshub.Hub
	workflows   *workflow.Service
	currency    string
	reportLimit int
}

func NewServer(database *db.DB, opt *pipeline.Optimizer, authSvc *auth.Service, hub *wshub.Hub, workflows *workflow.Service, currency string) *Server {
	if !units.IsValid(currency) {
		currency = units.USD
	}
	return &Server{
		db:          database,
		optimizer:   opt,
		auth:        authSvc,
		hub:         hub,
		workflows:   workflows,
		currency:    currency,
		reportLimit: defaultReportProductLimit,
	}
}

// SetReportProductLimit caps how many product rows the report dashboard
// plots.
func (s *Server) SetReportProductLimit(n int) {
	if n > 0 {
		s.reportLimit = n
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", s.showRoot)
	mux.HandleFunc("/api/analyze", s.analyzeProduct)
	mux.HandleFunc("/api/analyses", s.listAnalyses)
	mux.HandleFunc("/api/health", s.showHealth)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/report", s.showReport)
	mux.HandleFunc("/api/auth/signup", s.signup)
	mux.HandleFunc("/api/auth/login", s.login)
	mux.HandleFunc("/api/auth/google/login", s.googleLogin)
	mux.HandleFunc("/api/auth/google/callback", s.googleCallback)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agents/", s.handleAgentByID)
	mux.HandleFunc("/api/v1/workflows", s.handleWorkflows)
	mux.HandleFunc("/api/v1/workflows/", s.handleWorkflowByID)
	mux.HandleFunc("/ws/workflows/", s.subscribeWorkflow)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

// analyzeRequest is the body of POST /api/analyze. ProductID is accepted as a
// JSON number or string; the pipeline validates it.
type analyzeRequest struct {
	ProductID any `json:"product_id"`
}

func (s *Server) analyzeProduct(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	result := s.optimizer.Analyze(r.Context(), req.ProductID)

	// Failed analyses record with product ID 0 when the ID never parsed.
	productID, _ := catalog.ParseProductID(req.ProductID)
	runID, err := s.db.RecordAnalysis(productID, result.Status, result.AsMap())
	if err != nil {
		log.Printf("failed to record analysis: %v", err)
	}

	resp := result.AsMap()
	resp["run_id"] = runID
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	analyses, err := s.db.ListAnalyses(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve analyses: %v", err))
		return
	}
	if analyses == nil {
		analyses = []db.Analysis{}
	}
	s.writeJSON(w, http.StatusOK, analyses)
}

// showRoot is the service banner. The "/api/" pattern also catches unknown
// subpaths, which get a JSON 404 instead of the mux default.
func (s *Server) showRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path != "/api/" && r.URL.Path != "/api" {
		s.writeJSONError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"msg":      "Product Intelligence API",
		"features": []string{"analysis", "auth", "agents", "workflows", "report"},
		"version":  Version,
	})
}

func (s *Server) showHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	count, err := s.db.ProductCount()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Database unavailable: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"products": count,
		"stages":   s.optimizer.StageNames(),
	})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"currency":        s.currency,
		"currency_symbol": units.Symbol(s.currency),
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}

func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	products, err := s.db.ProductSnapshots(s.reportLimit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve products: %v", err))
		return
	}
	if len(products) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "No products available")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.Render(w, products); err != nil {
		log.Printf("failed to render report: %v", err)
	}
}
