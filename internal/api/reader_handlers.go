package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/circulateapp/circulate-server/internal/http/response"
	"github.com/circulateapp/circulate-server/internal/service"
)

// handleCreateReader registers a new borrower.
func (s *Server) handleCreateReader(w http.ResponseWriter, r *http.Request) {
	var req service.ReaderRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	reader, err := s.readerService.CreateReader(r.Context(), req)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Created(w, reader, s.logger)
}

// handleListReaders returns all readers ordered by name.
func (s *Server) handleListReaders(w http.ResponseWriter, r *http.Request) {
	readers, err := s.readerService.ListReaders(r.Context())
	if err != nil {
		s.logger.Error("Failed to list readers", "error", err)
		response.InternalError(w, "Failed to retrieve readers", s.logger)
		return
	}

	response.Success(w, readers, s.logger)
}

// handleGetReader returns a single reader with its active-loan count.
func (s *Server) handleGetReader(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Reader ID is required", s.logger)
		return
	}

	reader, err := s.readerService.GetReader(r.Context(), id)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, reader, s.logger)
}

// handleUpdateReader updates a reader's contact fields.
func (s *Server) handleUpdateReader(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Reader ID is required", s.logger)
		return
	}

	var req service.ReaderRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	reader, err := s.readerService.UpdateReader(r.Context(), id, req)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, reader, s.logger)
}

// handleDeleteReader removes a reader and all its loans.
func (s *Server) handleDeleteReader(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Reader ID is required", s.logger)
		return
	}

	if err := s.readerService.DeleteReader(r.Context(), id); err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleListReaderLoans returns a reader's loan history, most recent first.
func (s *Server) handleListReaderLoans(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Reader ID is required", s.logger)
		return
	}

	loans, err := s.loanService.ListLoansForReader(r.Context(), id)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, loans, s.logger)
}
