package store

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/circulateapp/circulate-server/internal/domain"
	"github.com/circulateapp/circulate-server/internal/errors"
)

// Loan Operations
//
// Every mutation here runs inside one transaction that also refreshes
// the owning book, so loan state and book availability commit together.
// Concurrent borrows against one book serialize on the book record:
// badger aborts the losing transaction with ErrConflict and the retry
// re-reads the committed availability.

// CreateLoan persists a new loan in state borrowed. The borrow gate is
// checked against the book's state before the new loan is counted;
// afterwards the book is refreshed with the loan included.
func (s *Store) CreateLoan(ctx context.Context, loan *domain.Loan) error {
	key := []byte(loanPrefix + loan.ID)

	var book *domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		exists, err := txnExists(txn, key)
		if err != nil {
			return err
		}
		if exists {
			return ErrLoanExists
		}

		book, err = txnGetBook(txn, loan.BookID)
		if err != nil {
			return err
		}
		if _, err := txnGetReader(txn, loan.ReaderID); err != nil {
			return err
		}

		if err := loan.ValidateDates(); err != nil {
			return err
		}

		if !book.Borrowable() {
			return errors.Unavailablef("book %q is not available, available copies: %d",
				book.Title, book.AvailableCopies)
		}

		if err := txnPutLoan(txn, loan); err != nil {
			return err
		}
		return s.txnRefreshBook(txn, book)
	})
	if err != nil {
		return err
	}

	s.indexBook(ctx, book)

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "loan created",
			slog.String("id", loan.ID),
			slog.String("book_id", loan.BookID),
			slog.String("reader_id", loan.ReaderID),
			slog.Time("return_date", loan.ReturnDate),
		)
	}
	return nil
}

// GetLoan retrieves a loan by ID.
func (s *Store) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		loan, err = txnGetLoan(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// UpdateLoan applies changed dates or state to an existing loan. The book
// and reader references are immutable. Date order is validated on every
// update; when the resulting state is borrowed the availability check
// runs again (defense in depth for updates re-entering the borrowed
// state), and the owning book is refreshed in the same transaction.
func (s *Store) UpdateLoan(ctx context.Context, loan *domain.Loan) error {
	var book *domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		current, err := txnGetLoan(txn, loan.ID)
		if err != nil {
			return err
		}
		if loan.BookID != current.BookID || loan.ReaderID != current.ReaderID {
			return errors.Validation("loan book and reader references cannot change")
		}

		if err := loan.ValidateDates(); err != nil {
			return err
		}

		loan.Touch()
		if err := txnPutLoan(txn, loan); err != nil {
			return err
		}

		book, err = txnGetBook(txn, loan.BookID)
		if err != nil {
			return err
		}
		if err := s.txnRefreshBook(txn, book); err != nil {
			return err
		}

		// A loan in (or re-entering) borrowed state must not overdraw
		// the copy count once it is included in the recompute.
		if loan.State == domain.LoanBorrowed && book.AvailableCopies < 0 {
			return errors.Validationf("book %q has no available copies", book.Title)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.indexBook(ctx, book)
	return nil
}

// ReturnLoan marks a loan returned and stamps the actual return date.
// Returning an already-returned loan is rejected, not silently ignored.
func (s *Store) ReturnLoan(ctx context.Context, id string, asOf time.Time) (*domain.Loan, error) {
	var loan *domain.Loan
	var book *domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		current, err := txnGetLoan(txn, id)
		if err != nil {
			return err
		}
		if current.State == domain.LoanReturned {
			return errors.AlreadyReturned("this loan is already returned")
		}

		returned := domain.DateOf(asOf)
		current.State = domain.LoanReturned
		current.ActualReturnDate = &returned
		current.Touch()
		if err := txnPutLoan(txn, current); err != nil {
			return err
		}
		loan = current

		book, err = txnGetBook(txn, current.BookID)
		if err != nil {
			return err
		}
		return s.txnRefreshBook(txn, book)
	})
	if err != nil {
		return nil, err
	}

	s.indexBook(ctx, book)

	if s.logger != nil {
		s.logger.Info("loan returned", "id", id, "book_id", loan.BookID)
	}
	return loan, nil
}

// MarkLoanOverdue transitions a borrowed loan to overdue. A no-op, not
// an error, when the loan is already overdue or returned.
func (s *Store) MarkLoanOverdue(ctx context.Context, id string) (*domain.Loan, error) {
	var loan *domain.Loan
	var book *domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		book = nil
		current, err := txnGetLoan(txn, id)
		if err != nil {
			return err
		}
		loan = current
		if current.State != domain.LoanBorrowed {
			return nil
		}

		current.State = domain.LoanOverdue
		current.Touch()
		if err := txnPutLoan(txn, current); err != nil {
			return err
		}

		book, err = txnGetBook(txn, current.BookID)
		if err != nil {
			return err
		}
		return s.txnRefreshBook(txn, book)
	})
	if err != nil {
		return nil, err
	}

	if book != nil {
		s.indexBook(ctx, book)
	}
	return loan, nil
}

// SweepOverdue promotes every borrowed loan whose expected return date
// is in the past. The selection predicate keeps the sweep idempotent:
// loans already overdue or returned are never reprocessed, and a
// concurrent return simply conflicts and is honored on retry. Each
// affected book is refreshed exactly once. Returns the number of loans
// transitioned.
func (s *Store) SweepOverdue(ctx context.Context, asOf time.Time) (int, error) {
	count := 0
	var refreshed []*domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		count = 0
		refreshed = refreshed[:0]
		var due []*domain.Loan
		if err := txnScan(txn, []byte(loanPrefix), func(l *domain.Loan) error {
			if l.Due(asOf) {
				due = append(due, l)
			}
			return nil
		}); err != nil {
			return err
		}

		affected := make(map[string]bool)
		for _, loan := range due {
			loan.State = domain.LoanOverdue
			loan.Touch()
			if err := txnPutLoan(txn, loan); err != nil {
				return err
			}
			affected[loan.BookID] = true
			count++
		}

		// Per-book refresh, deduplicated when loans share a book. The
		// active count is unchanged (overdue still counts) but the
		// refresh keeps the invariant visible at commit.
		for bookID := range affected {
			book, err := txnGetBook(txn, bookID)
			if err != nil {
				return err
			}
			if err := s.txnRefreshBook(txn, book); err != nil {
				return err
			}
			refreshed = append(refreshed, book)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, book := range refreshed {
		s.indexBook(ctx, book)
	}

	if count > 0 && s.logger != nil {
		s.logger.Info("overdue sweep completed", "transitioned", count)
	}
	return count, nil
}

// ListLoans returns all loans ordered by loan date, most recent first.
func (s *Store) ListLoans(ctx context.Context) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	err := s.view(ctx, func(txn *badger.Txn) error {
		return txnScan(txn, []byte(loanPrefix), func(l *domain.Loan) error {
			loans = append(loans, l)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(loans, func(i, j int) bool { return loans[i].LoanDate.After(loans[j].LoanDate) })
	return loans, nil
}

// ListLoansForReader returns a reader's loans, most recent first.
func (s *Store) ListLoansForReader(ctx context.Context, readerID string) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	err := s.view(ctx, func(txn *badger.Txn) error {
		if _, err := txnGetReader(txn, readerID); err != nil {
			return err
		}
		return txnScanIDs(txn, loanByReaderScanPrefix(readerID), func(loanID string) error {
			loan, err := txnGetLoan(txn, loanID)
			if err != nil {
				return err
			}
			loans = append(loans, loan)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(loans, func(i, j int) bool { return loans[i].LoanDate.After(loans[j].LoanDate) })
	return loans, nil
}

// ListLoansForBook returns a book's loans, most recent first.
func (s *Store) ListLoansForBook(ctx context.Context, bookID string) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	err := s.view(ctx, func(txn *badger.Txn) error {
		if _, err := txnGetBook(txn, bookID); err != nil {
			return err
		}
		return txnScanIDs(txn, loanByBookScanPrefix(bookID), func(loanID string) error {
			loan, err := txnGetLoan(txn, loanID)
			if err != nil {
				return err
			}
			loans = append(loans, loan)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(loans, func(i, j int) bool { return loans[i].LoanDate.After(loans[j].LoanDate) })
	return loans, nil
}

// Transaction-scoped helpers.

func txnGetLoan(txn *badger.Txn, id string) (*domain.Loan, error) {
	return txnGet[domain.Loan](txn, []byte(loanPrefix+id), ErrLoanNotFound)
}

// txnPutLoan writes a loan together with its index keys on both owners.
func txnPutLoan(txn *badger.Txn, loan *domain.Loan) error {
	if err := txnSet(txn, []byte(loanPrefix+loan.ID), loan); err != nil {
		return err
	}
	if err := txn.Set(loanByBookKey(loan.BookID, loan.ID), []byte(loan.ID)); err != nil {
		return errors.Internal("failed to set loan book index", err)
	}
	if err := txn.Set(loanByReaderKey(loan.ReaderID, loan.ID), []byte(loan.ID)); err != nil {
		return errors.Internal("failed to set loan reader index", err)
	}
	return nil
}

// txnDeleteLoan removes a loan and its index keys on both owners.
func txnDeleteLoan(txn *badger.Txn, loan *domain.Loan) error {
	if err := txn.Delete([]byte(loanPrefix + loan.ID)); err != nil {
		return errors.Internal("failed to delete loan", err)
	}
	if err := txn.Delete(loanByBookKey(loan.BookID, loan.ID)); err != nil {
		return errors.Internal("failed to delete loan book index", err)
	}
	if err := txn.Delete(loanByReaderKey(loan.ReaderID, loan.ID)); err != nil {
		return errors.Internal("failed to delete loan reader index", err)
	}
	return nil
}
