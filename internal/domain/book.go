// Package domain contains the core business entities and circulation rules
// for the Circulate library server.
package domain

import (
	"github.com/circulateapp/circulate-server/internal/errors"
)

// BookStatus is the lifecycle status of a catalog entry.
type BookStatus string

// Book statuses.
const (
	BookAvailable   BookStatus = "available"
	BookUnavailable BookStatus = "unavailable"
	BookMaintenance BookStatus = "maintenance"
)

// Book is a catalog entry with a copy count and a derived availability.
type Book struct {
	Entity
	Title    string     `json:"title"`
	Author   string     `json:"author"`
	ISBN     string     `json:"isbn,omitempty"`
	Category string     `json:"category,omitempty"`
	Copies   int        `json:"copies"`
	Status   BookStatus `json:"status"`

	// AvailableCopies is derived: Copies minus the count of this book's
	// active loans. Never set directly; recomputed by RecomputeAvailable
	// inside the same transaction as any loan change.
	AvailableCopies int `json:"available_copies"`
}

// ValidateCopies rejects a negative copy count.
func ValidateCopies(n int) error {
	if n < 0 {
		return errors.Validation("number of copies must be positive or zero")
	}
	return nil
}

// Validate checks the fields an administrator supplies on create/update.
func (b *Book) Validate() error {
	if b.Title == "" {
		return errors.Validation("book title is required")
	}
	if b.Author == "" {
		return errors.Validation("book author is required")
	}
	return ValidateCopies(b.Copies)
}

// RecomputeAvailable derives AvailableCopies from the current number of
// active loans. Callers that changed loan membership or loan state must
// invoke this before the book is considered consistent.
func (b *Book) RecomputeAvailable(activeLoans int) {
	b.AvailableCopies = b.Copies - activeLoans
}

// RefreshStatus applies the availability-driven status flip: unavailable
// books become available when copies free up, available books become
// unavailable at zero. Maintenance is sticky and never touched here.
// Returns true when the status changed.
func (b *Book) RefreshStatus() bool {
	switch {
	case b.AvailableCopies > 0 && b.Status == BookUnavailable:
		b.Status = BookAvailable
		return true
	case b.AvailableCopies == 0 && b.Status == BookAvailable:
		b.Status = BookUnavailable
		return true
	}
	return false
}

// Refresh recomputes availability and then applies the status rule.
// This is the availability refresh invoked after every loan transition.
func (b *Book) Refresh(activeLoans int) {
	b.RecomputeAvailable(activeLoans)
	b.RefreshStatus()
}

// MarkMaintenance forces the status to maintenance regardless of
// availability. Copies and available copies are untouched.
func (b *Book) MarkMaintenance() {
	b.Status = BookMaintenance
}

// MarkAvailable is the explicit operator override that clears sticky
// maintenance: status becomes available when copies remain, otherwise
// unavailable.
func (b *Book) MarkAvailable() {
	if b.AvailableCopies > 0 {
		b.Status = BookAvailable
	} else {
		b.Status = BookUnavailable
	}
}

// Borrowable reports whether a new loan may be created against this book,
// checked against the book's state before the new loan is counted.
func (b *Book) Borrowable() bool {
	return b.Status != BookUnavailable && b.AvailableCopies > 0
}
