package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/circulateapp/circulate-server/internal/domain"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	// Create temp directory for test database
	tmpDir, err := os.MkdirTemp("", "circulate-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := New(dbPath, nil)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

// Helper to create a test book with the given copy count
func createTestBook(id string, copies int) *domain.Book {
	book := &domain.Book{
		Title:  "The Go Programming Language",
		Author: "Alan Donovan",
		ISBN:   "978-0134190440",
		Copies: copies,
		Status: domain.BookAvailable,
	}
	book.ID = id
	book.InitTimestamps()
	return book
}

// Helper to create a test reader
func createTestReader(id string) *domain.Reader {
	reader := &domain.Reader{
		Name:  "Ada Lovelace",
		Email: "ada@example.org",
		Type:  domain.ReaderStudent,
	}
	reader.ID = id
	reader.InitTimestamps()
	return reader
}

// Helper to create a borrowed test loan with default dates
func createTestLoan(id, bookID, readerID string) *domain.Loan {
	loanDate := domain.DateOf(time.Now())
	loan := &domain.Loan{
		BookID:     bookID,
		ReaderID:   readerID,
		LoanDate:   loanDate,
		ReturnDate: domain.DefaultReturnDate(loanDate),
		State:      domain.LoanBorrowed,
	}
	loan.ID = id
	loan.InitTimestamps()
	return loan
}

// seedBookAndReader creates one book and one reader for loan tests.
func seedBookAndReader(t *testing.T, s *Store, copies int) (*domain.Book, *domain.Reader) {
	t.Helper()
	ctx := context.Background()

	book := createTestBook("book-001", copies)
	require.NoError(t, s.CreateBook(ctx, book))

	reader := createTestReader("rdr-001")
	require.NoError(t, s.CreateReader(ctx, reader))

	return book, reader
}
