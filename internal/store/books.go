package store

import (
	"context"
	"log/slog"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/circulateapp/circulate-server/internal/domain"
)

// Book Operations

// CreateBook creates a new catalog entry. The initial availability equals
// the copy count since a new book has no loans.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	key := []byte(bookPrefix + book.ID)

	err := s.update(ctx, func(txn *badger.Txn) error {
		exists, err := txnExists(txn, key)
		if err != nil {
			return err
		}
		if exists {
			return ErrBookExists
		}

		book.Refresh(0)
		return txnSet(txn, key, book)
	})
	if err != nil {
		return err
	}

	s.indexBook(ctx, book)

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.Int("copies", book.Copies),
		)
	}
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var book *domain.Book
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		book, err = txnGetBook(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// UpdateBookInfo updates the descriptive fields of a book (title, author,
// ISBN, category). Copy counts and status go through their own operations.
func (s *Store) UpdateBookInfo(ctx context.Context, book *domain.Book) error {
	var updated *domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		current, err := txnGetBook(txn, book.ID)
		if err != nil {
			return err
		}
		current.Title = book.Title
		current.Author = book.Author
		current.ISBN = book.ISBN
		current.Category = book.Category
		current.Touch()
		updated = current
		return txnPutBook(txn, current)
	})
	if err != nil {
		return err
	}

	*book = *updated
	s.indexBook(ctx, updated)
	return nil
}

// SetBookCopies changes the total copy count and refreshes the book's
// availability and status in the same transaction. The caller validates
// the count; a stored book never holds a negative value.
func (s *Store) SetBookCopies(ctx context.Context, id string, copies int) (*domain.Book, error) {
	if err := domain.ValidateCopies(copies); err != nil {
		return nil, err
	}

	var book *domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		current, err := txnGetBook(txn, id)
		if err != nil {
			return err
		}
		current.Copies = copies
		if err := s.txnRefreshBook(txn, current); err != nil {
			return err
		}
		book = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.indexBook(ctx, book)

	if s.logger != nil {
		s.logger.Info("book copies updated", "id", id, "copies", copies, "available", book.AvailableCopies)
	}
	return book, nil
}

// MarkBookMaintenance forces a book into maintenance status. Sticky:
// availability refreshes will not touch it until MarkBookAvailable.
func (s *Store) MarkBookMaintenance(ctx context.Context, id string) (*domain.Book, error) {
	var book *domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		current, err := txnGetBook(txn, id)
		if err != nil {
			return err
		}
		current.MarkMaintenance()
		current.Touch()
		book = current
		return txnPutBook(txn, current)
	})
	if err != nil {
		return nil, err
	}

	s.indexBook(ctx, book)
	return book, nil
}

// MarkBookAvailable is the operator override that clears maintenance:
// the book becomes available or unavailable based on its current copies.
func (s *Store) MarkBookAvailable(ctx context.Context, id string) (*domain.Book, error) {
	var book *domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		current, err := txnGetBook(txn, id)
		if err != nil {
			return err
		}
		current.MarkAvailable()
		current.Touch()
		book = current
		return txnPutBook(txn, current)
	})
	if err != nil {
		return nil, err
	}

	s.indexBook(ctx, book)
	return book, nil
}

// ListBooks returns the full catalog ordered by title.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	var books []*domain.Book
	err := s.view(ctx, func(txn *badger.Txn) error {
		return txnScan(txn, []byte(bookPrefix), func(b *domain.Book) error {
			books = append(books, b)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

// DeleteBook removes a book and, first, all its loans (two-phase cascade:
// dependent loans go before the parent, with their index keys on both
// sides).
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txnGetBook(txn, id); err != nil {
			return err
		}

		// Phase one: delete dependent loans.
		var loanIDs []string
		prefix := loanByBookScanPrefix(id)
		if err := txnScanIDs(txn, prefix, func(loanID string) error {
			loanIDs = append(loanIDs, loanID)
			return nil
		}); err != nil {
			return err
		}

		for _, loanID := range loanIDs {
			loan, err := txnGetLoan(txn, loanID)
			if err != nil {
				return err
			}
			if err := txnDeleteLoan(txn, loan); err != nil {
				return err
			}
		}

		// Phase two: delete the parent.
		return txn.Delete([]byte(bookPrefix + id))
	})
	if err != nil {
		return err
	}

	s.unindexBook(ctx, id)

	if s.logger != nil {
		s.logger.Info("book deleted", "id", id)
	}
	return nil
}

// RefreshAllBooks recomputes availability and status across the whole
// catalog in one transaction. This is the bulk-fix path; per-loan events
// refresh only the affected book.
func (s *Store) RefreshAllBooks(ctx context.Context) error {
	var changed []*domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		changed = changed[:0]
		// One pass over loans builds the active count per book.
		active := make(map[string]int)
		if err := txnScan(txn, []byte(loanPrefix), func(l *domain.Loan) error {
			if l.Active() {
				active[l.BookID]++
			}
			return nil
		}); err != nil {
			return err
		}

		var books []*domain.Book
		if err := txnScan(txn, []byte(bookPrefix), func(b *domain.Book) error {
			books = append(books, b)
			return nil
		}); err != nil {
			return err
		}

		for _, book := range books {
			before := *book
			book.Refresh(active[book.ID])
			if book.AvailableCopies == before.AvailableCopies && book.Status == before.Status {
				continue
			}
			book.Touch()
			if err := txnPutBook(txn, book); err != nil {
				return err
			}
			changed = append(changed, book)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, book := range changed {
		s.indexBook(ctx, book)
	}
	return nil
}

// Transaction-scoped helpers shared by the loan state machine.

func txnGetBook(txn *badger.Txn, id string) (*domain.Book, error) {
	return txnGet[domain.Book](txn, []byte(bookPrefix+id), ErrBookNotFound)
}

func txnPutBook(txn *badger.Txn, book *domain.Book) error {
	return txnSet(txn, []byte(bookPrefix+book.ID), book)
}

// txnActiveLoanCount counts the book's loans in state borrowed or overdue.
func (s *Store) txnActiveLoanCount(txn *badger.Txn, bookID string) (int, error) {
	count := 0
	err := txnScanIDs(txn, loanByBookScanPrefix(bookID), func(loanID string) error {
		loan, err := txnGetLoan(txn, loanID)
		if err != nil {
			return err
		}
		if loan.Active() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// txnRefreshBook is the availability refresh: recompute available copies
// from the live loan set, apply the status-flip rule, persist. Invoked in
// the same transaction as every loan mutation.
func (s *Store) txnRefreshBook(txn *badger.Txn, book *domain.Book) error {
	active, err := s.txnActiveLoanCount(txn, book.ID)
	if err != nil {
		return err
	}
	book.Refresh(active)
	book.Touch()
	return txnPutBook(txn, book)
}
