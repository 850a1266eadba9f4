package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/circulateapp/circulate-server/internal/http/response"
	"github.com/circulateapp/circulate-server/internal/service"
)

// handleBorrow checks a book out to a reader.
func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req service.BorrowRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	loan, err := s.loanService.Borrow(r.Context(), req)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Created(w, loan, s.logger)
}

// handleListLoans returns all loans, most recent first.
func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.loanService.ListLoans(r.Context())
	if err != nil {
		s.logger.Error("Failed to list loans", "error", err)
		response.InternalError(w, "Failed to retrieve loans", s.logger)
		return
	}

	response.Success(w, loans, s.logger)
}

// handleGetLoan returns a loan joined with its book and reader.
func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Loan ID is required", s.logger)
		return
	}

	detail, err := s.loanService.GetLoan(r.Context(), id)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, detail, s.logger)
}

// handleUpdateLoan changes a loan's dates, e.g. a renewal.
func (s *Server) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Loan ID is required", s.logger)
		return
	}

	var req service.UpdateLoanRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	loan, err := s.loanService.UpdateDates(r.Context(), id, req)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, loan, s.logger)
}

// handleReturnLoan checks a loan back in.
func (s *Server) handleReturnLoan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Loan ID is required", s.logger)
		return
	}

	loan, err := s.loanService.Return(r.Context(), id)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, loan, s.logger)
}

// handleMarkLoanOverdue flags a borrowed loan overdue ahead of the sweep.
func (s *Server) handleMarkLoanOverdue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Loan ID is required", s.logger)
		return
	}

	loan, err := s.loanService.MarkOverdue(r.Context(), id)
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, loan, s.logger)
}

// handleSweepOverdue runs the overdue sweep on demand and reports the
// number of loans transitioned.
func (s *Server) handleSweepOverdue(w http.ResponseWriter, r *http.Request) {
	count, err := s.loanService.Sweep(r.Context())
	if err != nil {
		response.DomainError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]int{"transitioned": count}, s.logger)
}
