package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDefaultReturnDate(t *testing.T) {
	got := DefaultReturnDate(date(2024, time.January, 1))
	assert.Equal(t, date(2024, time.January, 15), got)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 9, DaysBetween(date(2024, time.January, 1), date(2024, time.January, 10)))
	assert.Equal(t, 0, DaysBetween(date(2024, time.January, 1), date(2024, time.January, 1)))
	assert.Equal(t, -3, DaysBetween(date(2024, time.January, 4), date(2024, time.January, 1)))

	// Time-of-day never changes the civil-date difference
	late := time.Date(2024, time.January, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 9, DaysBetween(date(2024, time.January, 1), late))
}

func TestLoanDaysOverdue(t *testing.T) {
	loan := Loan{
		State:      LoanBorrowed,
		LoanDate:   date(2023, time.December, 18),
		ReturnDate: date(2024, time.January, 1),
	}

	assert.Equal(t, 9, loan.DaysOverdue(date(2024, time.January, 10)))
	assert.Equal(t, 0, loan.DaysOverdue(date(2024, time.January, 1)))
	assert.Equal(t, 0, loan.DaysOverdue(date(2023, time.December, 25)))

	loan.State = LoanReturned
	assert.Equal(t, 0, loan.DaysOverdue(date(2024, time.January, 10)))
}

func TestLoanDue(t *testing.T) {
	loan := Loan{
		State:      LoanBorrowed,
		LoanDate:   date(2024, time.January, 1),
		ReturnDate: date(2024, time.January, 15),
	}

	assert.False(t, loan.Due(date(2024, time.January, 15)), "due date itself is not overdue")
	assert.True(t, loan.Due(date(2024, time.January, 16)))

	loan.State = LoanOverdue
	assert.False(t, loan.Due(date(2024, time.January, 16)), "already overdue loans are not reswept")

	loan.State = LoanReturned
	assert.False(t, loan.Due(date(2024, time.January, 16)))
}

func TestLoanValidateDates(t *testing.T) {
	loan := Loan{
		LoanDate:   date(2024, time.January, 10),
		ReturnDate: date(2024, time.January, 5),
	}
	assert.Error(t, loan.ValidateDates())

	loan.ReturnDate = date(2024, time.January, 10)
	assert.NoError(t, loan.ValidateDates(), "same-day return is allowed")

	loan.ReturnDate = date(2024, time.January, 24)
	assert.NoError(t, loan.ValidateDates())
}

func TestLoanActive(t *testing.T) {
	assert.True(t, (&Loan{State: LoanBorrowed}).Active())
	assert.True(t, (&Loan{State: LoanOverdue}).Active())
	assert.False(t, (&Loan{State: LoanReturned}).Active())
}

func TestLoanDisplayName(t *testing.T) {
	loan := Loan{}
	assert.Equal(t, "Dune - Paul Atreides", loan.DisplayName("Dune", "Paul Atreides"))
	assert.Equal(t, "New Loan", loan.DisplayName("", ""))
	assert.Equal(t, "New Loan", loan.DisplayName("Dune", ""))
}
