package router

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/invoice-analyzer-api/internal/config"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/handlers"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/metrics"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/middleware"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/services"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/utils"
)

// NewRouter wires the API routes. m may be nil to skip request metrics.
func NewRouter(analysisService services.AnalysisService, cfg *config.Config, m *metrics.Metrics, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares, outermost first. Recovery sits innermost so a panic is
	// still logged and counted.
	chain := []mux.MiddlewareFunc{
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORSAllowedOrigin),
	}
	if m != nil {
		chain = append(chain, m.Middleware)
	}
	chain = append(chain, middleware.Recovery(logger))
	r.Use(chain...)

	analyzeHandler := handlers.NewAnalyzeHandler(analysisService, cfg.MaxFileSize, logger)

	// Routes
	api := r.PathPrefix("/api").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// OPTIONS is routed so CORS preflight passes through the middleware chain.
	api.HandleFunc("/analyze", analyzeHandler.Analyze).Methods(http.MethodPost, http.MethodOptions)

	// mux skips Use middleware for unmatched requests, so wrap these by hand.
	notAllowed := wrap(errorHandler(http.StatusMethodNotAllowed, "Method not allowed"), chain)
	r.NotFoundHandler = wrap(errorHandler(http.StatusNotFound, "Not found"), chain)
	r.MethodNotAllowedHandler = notAllowed
	api.MethodNotAllowedHandler = notAllowed

	return r
}

func wrap(h http.Handler, chain []mux.MiddlewareFunc) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

func errorHandler(status int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
	})
}
