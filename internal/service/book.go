// Package service provides the business logic layer for the Circulate
// catalog, readers, and loan circulation.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/circulateapp/circulate-server/internal/domain"
	"github.com/circulateapp/circulate-server/internal/id"
	"github.com/circulateapp/circulate-server/internal/store"
	"github.com/circulateapp/circulate-server/internal/validation"
)

// BookService orchestrates catalog operations.
type BookService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *BookService {
	return &BookService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// CreateBookRequest contains the fields for a new catalog entry.
type CreateBookRequest struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ISBN     string `json:"isbn"`
	Category string `json:"category"`
	Copies   int    `json:"copies" validate:"gte=0"`
}

// UpdateBookRequest contains the descriptive fields of a book. Copy
// counts change through SetCopies, status through the mark operations.
type UpdateBookRequest struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ISBN     string `json:"isbn"`
	Category string `json:"category"`
}

// SetCopiesRequest carries a new total copy count.
type SetCopiesRequest struct {
	Copies int `json:"copies" validate:"gte=0"`
}

// CreateBook adds a book to the catalog. A book created with zero copies
// starts out unavailable.
func (s *BookService) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		Title:    req.Title,
		Author:   req.Author,
		ISBN:     req.ISBN,
		Category: req.Category,
		Copies:   req.Copies,
		Status:   domain.BookAvailable,
	}
	book.ID = bookID
	book.InitTimestamps()

	if err := book.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// GetBook retrieves a book by ID.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.store.GetBook(ctx, bookID)
}

// ListBooks returns the catalog ordered by title.
func (s *BookService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.store.ListBooks(ctx)
}

// UpdateBook updates a book's descriptive fields.
func (s *BookService) UpdateBook(ctx context.Context, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book := &domain.Book{
		Title:    req.Title,
		Author:   req.Author,
		ISBN:     req.ISBN,
		Category: req.Category,
	}
	book.ID = bookID

	if err := s.store.UpdateBookInfo(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// SetCopies changes a book's total copy count. Availability and status
// follow in the same transaction.
func (s *BookService) SetCopies(ctx context.Context, bookID string, req SetCopiesRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.store.SetBookCopies(ctx, bookID, req.Copies)
}

// MarkMaintenance pulls a book into maintenance. The status sticks until
// MarkAvailable clears it; existing loans are unaffected and remaining
// copies can still be borrowed.
func (s *BookService) MarkMaintenance(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.MarkBookMaintenance(ctx, bookID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("book marked for maintenance", "book_id", bookID, "title", book.Title)
	return book, nil
}

// MarkAvailable clears maintenance; the resulting status depends on the
// book's current availability.
func (s *BookService) MarkAvailable(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.store.MarkBookAvailable(ctx, bookID)
}

// DeleteBook removes a book and all its loans.
func (s *BookService) DeleteBook(ctx context.Context, bookID string) error {
	return s.store.DeleteBook(ctx, bookID)
}

// RefreshAll recomputes availability and status across the whole catalog.
// The bulk-fix path for operators; normal loan traffic refreshes only the
// affected book.
func (s *BookService) RefreshAll(ctx context.Context) error {
	if err := s.store.RefreshAllBooks(ctx); err != nil {
		return err
	}

	s.logger.Info("catalog availability refreshed")
	return nil
}
