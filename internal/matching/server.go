package matching

import (
	"log/slog"
	"net/http"
	"time"
)

// Options configure the HTTP server
type Options struct {
	// AnalysisTimeout bounds one upload's pipeline run; zero means no limit
	AnalysisTimeout time.Duration
}

// Server handles HTTP requests for analysis sessions
type Server struct {
	service *Service
	options Options
	mux     *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, options Options) *Server {
	return NewServerWithMux(service, options, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, options Options, mux *http.ServeMux) *Server {
	s := &Server{
		service: service,
		options: options,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/analyses/{id}/documents/{doc}/preview", s.handlePreview)
	s.mux.HandleFunc("GET /api/analyses/{id}/export.json", s.handleExportJSON)
	s.mux.HandleFunc("GET /api/analyses/{id}/export.xlsx", s.handleExportXLSX)
	s.mux.HandleFunc("PATCH /api/analyses/{id}/records", s.handleEditRecords)
	s.mux.HandleFunc("POST /api/analyses/{id}/evaluate", s.handleEvaluate)
	s.mux.HandleFunc("GET /api/analyses/{id}", s.handleGetAnalysis)
	s.mux.HandleFunc("DELETE /api/analyses/{id}", s.handleDeleteAnalysis)
	s.mux.HandleFunc("POST /api/analyses", s.handleCreateAnalysis)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the mux wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}
