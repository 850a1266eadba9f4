package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/circulateapp/circulate-server/internal/http/response"
	"github.com/circulateapp/circulate-server/internal/service"
)

// handleCreateBook adds a book to the catalog.
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.CreateBookRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	book, err := s.bookService.CreateBook(ctx, req)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Created(w, book, s.logger)
}

// handleListBooks returns the catalog ordered by title.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.bookService.ListBooks(r.Context())
	if err != nil {
		s.logger.Error("Failed to list books", "error", err)
		response.InternalError(w, "Failed to retrieve books", s.logger)
		return
	}

	response.Success(w, books, s.logger)
}

// handleGetBook returns a single book by ID.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	book, err := s.bookService.GetBook(r.Context(), id)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleUpdateBook updates a book's descriptive fields.
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	var req service.UpdateBookRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	book, err := s.bookService.UpdateBook(r.Context(), id, req)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleSetBookCopies changes a book's total copy count.
func (s *Server) handleSetBookCopies(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	var req service.SetCopiesRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	book, err := s.bookService.SetCopies(r.Context(), id, req)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleMarkBookMaintenance pulls a book into maintenance.
func (s *Server) handleMarkBookMaintenance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	book, err := s.bookService.MarkMaintenance(r.Context(), id)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleMarkBookAvailable clears maintenance.
func (s *Server) handleMarkBookAvailable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	book, err := s.bookService.MarkAvailable(r.Context(), id)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleDeleteBook removes a book and all its loans.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	if err := s.bookService.DeleteBook(r.Context(), id); err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleListBookLoans returns a book's loan history, most recent first.
func (s *Server) handleListBookLoans(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	loans, err := s.loanService.ListLoansForBook(r.Context(), id)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, loans, s.logger)
}

// handleRefreshAllBooks runs the full-catalog availability refresh.
func (s *Server) handleRefreshAllBooks(w http.ResponseWriter, r *http.Request) {
	if err := s.bookService.RefreshAll(r.Context()); err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}
