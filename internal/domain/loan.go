package domain

import (
	"fmt"
	"time"

	"github.com/circulateapp/circulate-server/internal/errors"
)

// LoanState is the circulation state of a loan.
type LoanState string

// Loan states. Borrowed is initial; returned is terminal; overdue can
// still transition to returned.
const (
	LoanBorrowed LoanState = "borrowed"
	LoanReturned LoanState = "returned"
	LoanOverdue  LoanState = "overdue"
)

// DefaultLoanPeriodDays is applied when a loan is created without an
// explicit expected return date.
const DefaultLoanPeriodDays = 14

// Loan binds one book to one reader for a time window. It is a dependent
// record: deleting the referenced book or reader deletes the loan.
type Loan struct {
	Entity
	BookID   string    `json:"book_id"`
	ReaderID string    `json:"reader_id"`
	LoanDate time.Time `json:"loan_date"`

	// ReturnDate is the expected return date, always set.
	ReturnDate time.Time `json:"return_date"`

	// ActualReturnDate is set only when the loan is returned.
	ActualReturnDate *time.Time `json:"actual_return_date,omitempty"`

	State LoanState `json:"state"`
}

// DefaultReturnDate computes the expected return date for a loan taken
// out on loanDate with no explicit date supplied.
func DefaultReturnDate(loanDate time.Time) time.Time {
	return DateOf(loanDate).AddDate(0, 0, DefaultLoanPeriodDays)
}

// Active reports whether the loan counts against book availability and
// the reader's active count.
func (l *Loan) Active() bool {
	return l.State == LoanBorrowed || l.State == LoanOverdue
}

// DaysOverdue is derived: for a borrowed loan past its expected return
// date it is the whole-day difference, otherwise zero.
func (l *Loan) DaysOverdue(asOf time.Time) int {
	if l.State != LoanBorrowed {
		return 0
	}
	if days := DaysBetween(l.ReturnDate, asOf); days > 0 {
		return days
	}
	return 0
}

// Due reports whether the loan should be promoted by the overdue sweep:
// still borrowed with an expected return date strictly before asOf.
func (l *Loan) Due(asOf time.Time) bool {
	return l.State == LoanBorrowed && DateOf(l.ReturnDate).Before(DateOf(asOf))
}

// ValidateDates rejects an expected return date before the loan date.
// Runs on every create and update.
func (l *Loan) ValidateDates() error {
	if l.ReturnDate.Before(l.LoanDate) {
		return errors.Validation("return date cannot be before loan date")
	}
	return nil
}

// DisplayName derives the loan's display label from its parents.
func (l *Loan) DisplayName(bookTitle, readerName string) string {
	if bookTitle == "" || readerName == "" {
		return "New Loan"
	}
	return fmt.Sprintf("%s - %s", bookTitle, readerName)
}
