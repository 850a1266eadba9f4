package domain

import (
	"regexp"

	"github.com/circulateapp/circulate-server/internal/errors"
)

// ReaderType classifies a borrower.
type ReaderType string

// Reader types.
const (
	ReaderStudent  ReaderType = "student"
	ReaderFaculty  ReaderType = "faculty"
	ReaderStaff    ReaderType = "staff"
	ReaderExternal ReaderType = "external"
)

// emailPattern matches local@domain.tld with an ASCII local part.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Reader is a registered borrower.
type Reader struct {
	Entity
	Name  string     `json:"name"`
	Email string     `json:"email,omitempty"`
	Phone string     `json:"phone,omitempty"`
	Type  ReaderType `json:"type"`

	// ActiveLoansCount is derived: the number of this reader's loans in
	// state borrowed or overdue. Populated on read, never stored.
	ActiveLoansCount int `json:"active_loans_count"`
}

// ValidTypes for request validation.
func (t ReaderType) Valid() bool {
	switch t {
	case ReaderStudent, ReaderFaculty, ReaderStaff, ReaderExternal:
		return true
	}
	return false
}

// ValidateEmail accepts an absent email and otherwise requires the
// standard address pattern.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if !emailPattern.MatchString(email) {
		return errors.Validation("please enter a valid email address")
	}
	return nil
}

// Validate checks the fields supplied on create/update.
func (r *Reader) Validate() error {
	if r.Name == "" {
		return errors.Validation("reader name is required")
	}
	if !r.Type.Valid() {
		return errors.Validationf("invalid reader type %q", r.Type)
	}
	return ValidateEmail(r.Email)
}
