package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circulateapp/circulate-server/internal/domain"
)

func TestCreateReader(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	reader := createTestReader("rdr-001")

	require.NoError(t, store.CreateReader(ctx, reader))

	retrieved, err := store.GetReader(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, reader.Name, retrieved.Name)
	assert.Equal(t, reader.Email, retrieved.Email)
	assert.Equal(t, domain.ReaderStudent, retrieved.Type)
	assert.Equal(t, 0, retrieved.ActiveLoansCount)
}

func TestCreateReader_Duplicate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateReader(ctx, createTestReader("rdr-001")))

	err := store.CreateReader(ctx, createTestReader("rdr-001"))
	assert.ErrorIs(t, err, ErrReaderExists)
}

func TestGetReader_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetReader(context.Background(), "rdr-missing")
	assert.ErrorIs(t, err, ErrReaderNotFound)
}

func TestUpdateReader(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	reader := createTestReader("rdr-001")
	require.NoError(t, store.CreateReader(ctx, reader))

	reader.Name = "Grace Hopper"
	reader.Type = domain.ReaderFaculty
	require.NoError(t, store.UpdateReader(ctx, reader))

	retrieved, err := store.GetReader(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", retrieved.Name)
	assert.Equal(t, domain.ReaderFaculty, retrieved.Type)
}

// TestGetReader_ActiveLoansCount tests the derived count: borrowed and
// overdue loans count, returned loans do not
func TestGetReader_ActiveLoansCount(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	book, reader := seedBookAndReader(t, store, 5)

	for i := 1; i <= 3; i++ {
		loan := createTestLoan(fmt.Sprintf("loan-%03d", i), book.ID, reader.ID)
		require.NoError(t, store.CreateLoan(ctx, loan))
	}

	_, err := store.ReturnLoan(ctx, "loan-001", time.Now())
	require.NoError(t, err)

	_, err = store.MarkLoanOverdue(ctx, "loan-002")
	require.NoError(t, err)

	retrieved, err := store.GetReader(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, retrieved.ActiveLoansCount)
}

func TestListReaders_SortedWithCounts(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	book := createTestBook("book-001", 5)
	require.NoError(t, store.CreateBook(ctx, book))

	names := []string{"Charlie", "Alice", "Bob"}
	for i, name := range names {
		reader := createTestReader(fmt.Sprintf("rdr-%03d", i+1))
		reader.Name = name
		require.NoError(t, store.CreateReader(ctx, reader))
	}

	loan := createTestLoan("loan-001", book.ID, "rdr-002") // Alice
	require.NoError(t, store.CreateLoan(ctx, loan))

	readers, err := store.ListReaders(ctx)
	require.NoError(t, err)
	require.Len(t, readers, 3)
	assert.Equal(t, "Alice", readers[0].Name)
	assert.Equal(t, 1, readers[0].ActiveLoansCount)
	assert.Equal(t, "Bob", readers[1].Name)
	assert.Equal(t, "Charlie", readers[2].Name)
	assert.Equal(t, 0, readers[2].ActiveLoansCount)
}

// TestDeleteReader_CascadesAndFreesCopies tests that deleting a reader
// removes its loans and gives the borrowed copies back
func TestDeleteReader_CascadesAndFreesCopies(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	book, reader := seedBookAndReader(t, store, 1)

	loan := createTestLoan("loan-001", book.ID, reader.ID)
	require.NoError(t, store.CreateLoan(ctx, loan))

	// Last copy out: the book flipped unavailable
	borrowed, err := store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BookUnavailable, borrowed.Status)

	require.NoError(t, store.DeleteReader(ctx, reader.ID))

	_, err = store.GetReader(ctx, reader.ID)
	assert.ErrorIs(t, err, ErrReaderNotFound)

	_, err = store.GetLoan(ctx, loan.ID)
	assert.ErrorIs(t, err, ErrLoanNotFound)

	// The deleted loan's copy is back and the status flipped with it
	retrieved, err := store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, retrieved.AvailableCopies)
	assert.Equal(t, domain.BookAvailable, retrieved.Status)
}

func TestDeleteReader_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.DeleteReader(context.Background(), "rdr-missing")
	assert.ErrorIs(t, err, ErrReaderNotFound)
}
