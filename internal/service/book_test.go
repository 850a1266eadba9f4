package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circulateapp/circulate-server/internal/domain"
	"github.com/circulateapp/circulate-server/internal/errors"
	"github.com/circulateapp/circulate-server/internal/id"
)

func TestCreateBook(t *testing.T) {
	books, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	book, err := books.CreateBook(ctx, CreateBookRequest{
		Title:    "Snow Crash",
		Author:   "Neal Stephenson",
		ISBN:     "978-0553380958",
		Category: "fiction",
		Copies:   3,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(book.ID, id.PrefixBook+"-"))
	assert.Equal(t, 3, book.AvailableCopies)
	assert.Equal(t, domain.BookAvailable, book.Status)
	assert.False(t, book.CreatedAt.IsZero())
}

func TestCreateBook_ZeroCopiesStartsUnavailable(t *testing.T) {
	books, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	book, err := books.CreateBook(context.Background(), CreateBookRequest{
		Title:  "Snow Crash",
		Author: "Neal Stephenson",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BookUnavailable, book.Status)
}

func TestCreateBook_Invalid(t *testing.T) {
	books, _, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	_, err := books.CreateBook(ctx, CreateBookRequest{Author: "Neal Stephenson"})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = books.CreateBook(ctx, CreateBookRequest{Title: "Snow Crash", Author: "Neal Stephenson", Copies: -2})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestUpdateBook(t *testing.T) {
	books, readers, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	book, _ := seedCatalog(t, books, readers, 2)

	updated, err := books.UpdateBook(ctx, book.ID, UpdateBookRequest{
		Title:    "Snow Crash",
		Author:   "Neal Stephenson",
		Category: "cyberpunk",
	})
	require.NoError(t, err)
	assert.Equal(t, "cyberpunk", updated.Category)
	assert.Equal(t, 2, updated.Copies)
}

func TestSetCopies(t *testing.T) {
	books, readers, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	book, _ := seedCatalog(t, books, readers, 2)

	updated, err := books.SetCopies(ctx, book.ID, SetCopiesRequest{Copies: 0})
	require.NoError(t, err)
	assert.Equal(t, domain.BookUnavailable, updated.Status)

	_, err = books.SetCopies(ctx, book.ID, SetCopiesRequest{Copies: -1})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestMaintenanceLifecycle(t *testing.T) {
	books, readers, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	book, _ := seedCatalog(t, books, readers, 2)

	marked, err := books.MarkMaintenance(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookMaintenance, marked.Status)

	cleared, err := books.MarkAvailable(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookAvailable, cleared.Status)
}

func TestRefreshAll(t *testing.T) {
	books, readers, loans, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	book, reader := seedCatalog(t, books, readers, 1)

	_, err := loans.Borrow(ctx, BorrowRequest{BookID: book.ID, ReaderID: reader.ID})
	require.NoError(t, err)

	require.NoError(t, books.RefreshAll(ctx))

	refreshed, err := books.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Zero(t, refreshed.AvailableCopies)
	assert.Equal(t, domain.BookUnavailable, refreshed.Status)
}
