package sweeper

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circulateapp/circulate-server/internal/domain"
	"github.com/circulateapp/circulate-server/internal/service"
	"github.com/circulateapp/circulate-server/internal/store"
	"github.com/circulateapp/circulate-server/internal/validation"
)

func setupTestSweeper(t *testing.T) (*service.BookService, *service.ReaderService, *service.LoanService, *Sweeper, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "circulate-sweeper-test-*")
	require.NoError(t, err)

	testStore, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	v := validation.New()
	books := service.NewBookService(testStore, v, logger)
	readers := service.NewReaderService(testStore, v, logger)
	loans := service.NewLoanService(testStore, v, logger)

	sw := New(loans, time.Hour, logger)

	cleanup := func() {
		sw.Stop()
		_ = testStore.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return books, readers, loans, sw, cleanup
}

func TestRunOnce_TransitionsOverdueLoans(t *testing.T) {
	books, readers, loans, sw, cleanup := setupTestSweeper(t)
	defer cleanup()

	ctx := context.Background()

	book, err := books.CreateBook(ctx, service.CreateBookRequest{
		Title:  "The Left Hand of Darkness",
		Author: "Ursula K. Le Guin",
		Copies: 1,
	})
	require.NoError(t, err)

	reader, err := readers.CreateReader(ctx, service.ReaderRequest{
		Name: "Genly Ai",
		Type: "external",
	})
	require.NoError(t, err)

	// Borrow in the past, then advance the clock past the due date.
	past := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	loans.WithClock(func() time.Time { return past })

	loan, err := loans.Borrow(ctx, service.BorrowRequest{BookID: book.ID, ReaderID: reader.ID})
	require.NoError(t, err)

	loans.WithClock(func() time.Time { return past.AddDate(0, 1, 0) })

	count, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	detail, err := loans.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanOverdue, detail.State)
}

func TestRunOnce_NothingDue(t *testing.T) {
	_, _, _, sw, cleanup := setupTestSweeper(t)
	defer cleanup()

	count, err := sw.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStartStop(t *testing.T) {
	_, _, _, sw, cleanup := setupTestSweeper(t)
	defer cleanup()

	sw.Start()
	sw.Start() // idempotent
	sw.Stop()
	sw.Stop()
}
