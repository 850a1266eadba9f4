// Package api provides the HTTP API server and handlers for the
// Circulate library server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/circulateapp/circulate-server/internal/http/response"
	"github.com/circulateapp/circulate-server/internal/ratelimit"
	"github.com/circulateapp/circulate-server/internal/search"
	"github.com/circulateapp/circulate-server/internal/service"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	bookService   *service.BookService
	readerService *service.ReaderService
	loanService   *service.LoanService
	catalogIndex  *search.CatalogIndex
	limiter       *ratelimit.KeyedRateLimiter
	router        *chi.Mux
	logger        *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// catalogIndex may be nil, in which case search endpoints return 503.
func NewServer(
	bookService *service.BookService,
	readerService *service.ReaderService,
	loanService *service.LoanService,
	catalogIndex *search.CatalogIndex,
	limiter *ratelimit.KeyedRateLimiter,
	logger *slog.Logger,
) *Server {
	s := &Server{
		bookService:   bookService,
		readerService: readerService,
		loanService:   loanService,
		catalogIndex:  catalogIndex,
		limiter:       limiter,
		router:        chi.NewRouter(),
		logger:        logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Catalog.
		r.Route("/books", func(r chi.Router) {
			r.Post("/", s.handleCreateBook)
			r.Get("/", s.handleListBooks)
			r.Get("/{id}", s.handleGetBook)
			r.Patch("/{id}", s.handleUpdateBook)
			r.Delete("/{id}", s.handleDeleteBook)
			r.Put("/{id}/copies", s.handleSetBookCopies)
			r.Post("/{id}/maintenance", s.handleMarkBookMaintenance)
			r.Post("/{id}/available", s.handleMarkBookAvailable)
			r.Get("/{id}/loans", s.handleListBookLoans)
			r.Post("/refresh", s.handleRefreshAllBooks)
		})

		// Readers.
		r.Route("/readers", func(r chi.Router) {
			r.Post("/", s.handleCreateReader)
			r.Get("/", s.handleListReaders)
			r.Get("/{id}", s.handleGetReader)
			r.Patch("/{id}", s.handleUpdateReader)
			r.Delete("/{id}", s.handleDeleteReader)
			r.Get("/{id}/loans", s.handleListReaderLoans)
		})

		// Circulation.
		r.Route("/loans", func(r chi.Router) {
			r.Post("/", s.handleBorrow)
			r.Get("/", s.handleListLoans)
			r.Get("/{id}", s.handleGetLoan)
			r.Patch("/{id}", s.handleUpdateLoan)
			r.Post("/{id}/return", s.handleReturnLoan)
			r.Post("/{id}/overdue", s.handleMarkLoanOverdue)
			r.Post("/sweep", s.handleSweepOverdue)
		})

		// Catalog search.
		r.Get("/search", s.handleSearch)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
