package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/circulateapp/circulate-server/internal/domain"
	"github.com/circulateapp/circulate-server/internal/id"
	"github.com/circulateapp/circulate-server/internal/store"
	"github.com/circulateapp/circulate-server/internal/validation"
)

// LoanService orchestrates the circulation state machine.
type LoanService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger

	// now is injectable so date-sensitive behavior is testable.
	now func() time.Time
}

// NewLoanService creates a new loan service using the wall clock.
func NewLoanService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *LoanService {
	return &LoanService{
		store:     store,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *LoanService) WithClock(now func() time.Time) *LoanService {
	s.now = now
	return s
}

// BorrowRequest contains the fields for checking out a book.
type BorrowRequest struct {
	BookID   string `json:"book_id" validate:"required"`
	ReaderID string `json:"reader_id" validate:"required"`

	// LoanDate defaults to today, ReturnDate to the loan date plus the
	// standard loan period.
	LoanDate   *time.Time `json:"loan_date"`
	ReturnDate *time.Time `json:"return_date"`
}

// UpdateLoanRequest carries updated loan dates, e.g. a renewal.
type UpdateLoanRequest struct {
	LoanDate   *time.Time `json:"loan_date"`
	ReturnDate *time.Time `json:"return_date"`
}

// LoanDetail is a loan joined with its parents' display fields and the
// derived overdue day count.
type LoanDetail struct {
	*domain.Loan
	BookTitle   string `json:"book_title"`
	ReaderName  string `json:"reader_name"`
	DisplayName string `json:"display_name"`
	DaysOverdue int    `json:"days_overdue"`
}

// Borrow checks a book out to a reader. Fails when the book has no
// available copies or is unavailable; concurrent borrows of the last
// copy resolve to exactly one winner.
func (s *LoanService) Borrow(ctx context.Context, req BorrowRequest) (*domain.Loan, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	loanID, err := id.Generate(id.PrefixLoan)
	if err != nil {
		return nil, fmt.Errorf("generate loan ID: %w", err)
	}

	loanDate := domain.DateOf(s.now())
	if req.LoanDate != nil {
		loanDate = domain.DateOf(*req.LoanDate)
	}
	returnDate := domain.DefaultReturnDate(loanDate)
	if req.ReturnDate != nil {
		returnDate = domain.DateOf(*req.ReturnDate)
	}

	loan := &domain.Loan{
		BookID:     req.BookID,
		ReaderID:   req.ReaderID,
		LoanDate:   loanDate,
		ReturnDate: returnDate,
		State:      domain.LoanBorrowed,
	}
	loan.ID = loanID
	loan.InitTimestamps()

	if err := s.store.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// Return checks a borrowed or overdue loan back in, stamping today as
// the actual return date.
func (s *LoanService) Return(ctx context.Context, loanID string) (*domain.Loan, error) {
	return s.store.ReturnLoan(ctx, loanID, s.now())
}

// MarkOverdue flags a borrowed loan overdue ahead of the sweep.
func (s *LoanService) MarkOverdue(ctx context.Context, loanID string) (*domain.Loan, error) {
	return s.store.MarkLoanOverdue(ctx, loanID)
}

// UpdateDates changes a loan's dates, keeping any field not supplied.
func (s *LoanService) UpdateDates(ctx context.Context, loanID string, req UpdateLoanRequest) (*domain.Loan, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if req.LoanDate != nil {
		loan.LoanDate = domain.DateOf(*req.LoanDate)
	}
	if req.ReturnDate != nil {
		loan.ReturnDate = domain.DateOf(*req.ReturnDate)
	}

	if err := s.store.UpdateLoan(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// GetLoan retrieves a loan joined with its book and reader.
func (s *LoanService) GetLoan(ctx context.Context, loanID string) (*LoanDetail, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, loan)
}

// ListLoans returns all loans, most recent first.
func (s *LoanService) ListLoans(ctx context.Context) ([]*domain.Loan, error) {
	return s.store.ListLoans(ctx)
}

// ListLoansForBook returns a book's loans, most recent first.
func (s *LoanService) ListLoansForBook(ctx context.Context, bookID string) ([]*domain.Loan, error) {
	return s.store.ListLoansForBook(ctx, bookID)
}

// ListLoansForReader returns a reader's loans, most recent first.
func (s *LoanService) ListLoansForReader(ctx context.Context, readerID string) ([]*domain.Loan, error) {
	return s.store.ListLoansForReader(ctx, readerID)
}

// Sweep promotes every loan past its expected return date to overdue
// and returns the number transitioned.
func (s *LoanService) Sweep(ctx context.Context) (int, error) {
	return s.store.SweepOverdue(ctx, s.now())
}

func (s *LoanService) detail(ctx context.Context, loan *domain.Loan) (*LoanDetail, error) {
	book, err := s.store.GetBook(ctx, loan.BookID)
	if err != nil {
		return nil, fmt.Errorf("get loan book: %w", err)
	}
	reader, err := s.store.GetReader(ctx, loan.ReaderID)
	if err != nil {
		return nil, fmt.Errorf("get loan reader: %w", err)
	}

	return &LoanDetail{
		Loan:        loan,
		BookTitle:   book.Title,
		ReaderName:  reader.Name,
		DisplayName: loan.DisplayName(book.Title, reader.Name),
		DaysOverdue: loan.DaysOverdue(s.now()),
	}, nil
}
