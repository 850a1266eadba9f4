// Package search provides full-text catalog search using Bleve. Queries
// match on title and author with fuzzy and prefix fallbacks, with exact
// filters on category, status, and current availability.
package search

import (
	"github.com/circulateapp/circulate-server/internal/domain"
)

// BookDocument is the shape of a catalog entry in the Bleve index.
//
// Availability fields are denormalized into the document so searches can
// filter on "borrowable right now" without touching the store. They are
// refreshed whenever the store reindexes a book after a loan transition.
type BookDocument struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`

	// Exact-match fields
	ISBN     string `json:"isbn,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status"`

	// Numeric fields for range queries and sorting
	Copies          int `json:"copies"`
	AvailableCopies int `json:"available_copies"`

	// Timestamps for sorting, unix millis
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized); our mapping
// uses lowercase names, so we convert explicitly.
func (d *BookDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":               d.ID,
		"title":            d.Title,
		"author":           d.Author,
		"status":           d.Status,
		"copies":           d.Copies,
		"available_copies": d.AvailableCopies,
		"created_at":       d.CreatedAt,
		"updated_at":       d.UpdatedAt,
	}

	if d.ISBN != "" {
		m["isbn"] = d.ISBN
	}
	if d.Category != "" {
		m["category"] = d.Category
	}

	return m
}

// FromBook converts a domain Book to its index document.
func FromBook(book *domain.Book) *BookDocument {
	return &BookDocument{
		ID:              book.ID,
		Title:           book.Title,
		Author:          book.Author,
		ISBN:            book.ISBN,
		Category:        book.Category,
		Status:          string(book.Status),
		Copies:          book.Copies,
		AvailableCopies: book.AvailableCopies,
		CreatedAt:       book.CreatedAt.UnixMilli(),
		UpdatedAt:       book.UpdatedAt.UnixMilli(),
	}
}
