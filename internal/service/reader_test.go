package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circulateapp/circulate-server/internal/domain"
	"github.com/circulateapp/circulate-server/internal/errors"
)

func TestCreateReader(t *testing.T) {
	_, readers, _, cleanup := setupTestServices(t)
	defer cleanup()

	reader, err := readers.CreateReader(context.Background(), ReaderRequest{
		Name:  "Ada Lovelace",
		Email: "ada@example.org",
		Type:  "student",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReaderStudent, reader.Type)
	assert.Equal(t, 0, reader.ActiveLoansCount)
}

func TestCreateReader_Invalid(t *testing.T) {
	_, readers, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()

	_, err := readers.CreateReader(ctx, ReaderRequest{Type: "student"})
	assert.ErrorIs(t, err, errors.ErrValidation, "name required")

	_, err = readers.CreateReader(ctx, ReaderRequest{Name: "Ada", Type: "alumnus"})
	assert.ErrorIs(t, err, errors.ErrValidation, "unknown type")

	_, err = readers.CreateReader(ctx, ReaderRequest{Name: "Ada", Type: "student", Email: "not-an-email"})
	assert.ErrorIs(t, err, errors.ErrValidation, "bad email")
}

func TestUpdateReader(t *testing.T) {
	books, readers, _, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	_, reader := seedCatalog(t, books, readers, 1)

	updated, err := readers.UpdateReader(ctx, reader.ID, ReaderRequest{
		Name: "Hiro",
		Type: "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hiro", updated.Name)
	assert.Equal(t, domain.ReaderStaff, updated.Type)
}

func TestDeleteReader_FreesLoans(t *testing.T) {
	books, readers, loans, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	book, reader := seedCatalog(t, books, readers, 1)

	_, err := loans.Borrow(ctx, BorrowRequest{BookID: book.ID, ReaderID: reader.ID})
	require.NoError(t, err)

	require.NoError(t, readers.DeleteReader(ctx, reader.ID))

	retrieved, err := books.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, retrieved.AvailableCopies)
}
