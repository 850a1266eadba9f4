package store

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/circulateapp/circulate-server/internal/domain"
)

// Reader Operations

// CreateReader registers a new borrower.
func (s *Store) CreateReader(ctx context.Context, reader *domain.Reader) error {
	key := []byte(readerPrefix + reader.ID)

	err := s.update(ctx, func(txn *badger.Txn) error {
		exists, err := txnExists(txn, key)
		if err != nil {
			return err
		}
		if exists {
			return ErrReaderExists
		}
		return txnSet(txn, key, reader)
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("reader created", "id", reader.ID, "name", reader.Name)
	}
	return nil
}

// GetReader retrieves a reader by ID with its derived active-loan count.
func (s *Store) GetReader(ctx context.Context, id string) (*domain.Reader, error) {
	var reader *domain.Reader
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		reader, err = txnGetReader(txn, id)
		if err != nil {
			return err
		}
		reader.ActiveLoansCount, err = s.txnActiveLoanCountForReader(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// UpdateReader updates a reader's contact fields.
func (s *Store) UpdateReader(ctx context.Context, reader *domain.Reader) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		current, err := txnGetReader(txn, reader.ID)
		if err != nil {
			return err
		}
		current.Name = reader.Name
		current.Email = reader.Email
		current.Phone = reader.Phone
		current.Type = reader.Type
		current.Touch()
		*reader = *current
		return txnSet(txn, []byte(readerPrefix+current.ID), current)
	})
}

// ListReaders returns all readers ordered by name, each with its derived
// active-loan count. One pass over the loan set serves every reader.
func (s *Store) ListReaders(ctx context.Context) ([]*domain.Reader, error) {
	var readers []*domain.Reader
	err := s.view(ctx, func(txn *badger.Txn) error {
		active := make(map[string]int)
		if err := txnScan(txn, []byte(loanPrefix), func(l *domain.Loan) error {
			if l.Active() {
				active[l.ReaderID]++
			}
			return nil
		}); err != nil {
			return err
		}

		return txnScan(txn, []byte(readerPrefix), func(r *domain.Reader) error {
			r.ActiveLoansCount = active[r.ID]
			readers = append(readers, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(readers, func(i, j int) bool { return readers[i].Name < readers[j].Name })
	return readers, nil
}

// DeleteReader removes a reader and, first, all its loans. Active loans
// being deleted free up copies, so every affected book is refreshed in
// the same transaction.
func (s *Store) DeleteReader(ctx context.Context, id string) error {
	var refreshed []*domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		refreshed = refreshed[:0]
		if _, err := txnGetReader(txn, id); err != nil {
			return err
		}

		// Phase one: delete dependent loans, remembering affected books.
		var loanIDs []string
		if err := txnScanIDs(txn, loanByReaderScanPrefix(id), func(loanID string) error {
			loanIDs = append(loanIDs, loanID)
			return nil
		}); err != nil {
			return err
		}

		affected := make(map[string]bool)
		for _, loanID := range loanIDs {
			loan, err := txnGetLoan(txn, loanID)
			if err != nil {
				return err
			}
			if loan.Active() {
				affected[loan.BookID] = true
			}
			if err := txnDeleteLoan(txn, loan); err != nil {
				return err
			}
		}

		// Phase two: delete the parent, then refresh the books that
		// lost active loans.
		if err := txn.Delete([]byte(readerPrefix + id)); err != nil {
			return err
		}

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
		return err
	}

	for _, book := range refreshed {
		s.indexBook(ctx, book)
	}

	if s.logger != nil {
		s.logger.Info("reader deleted", "id", id)
	}
	return nil
}

func txnGetReader(txn *badger.Txn, id string) (*domain.Reader, error) {
	return txnGet[domain.Reader](txn, []byte(readerPrefix+id), ErrReaderNotFound)
}

// txnActiveLoanCountForReader counts the reader's loans in state borrowed
// or overdue.
func (s *Store) txnActiveLoanCountForReader(txn *badger.Txn, readerID string) (int, error) {
	count := 0
	err := txnScanIDs(txn, loanByReaderScanPrefix(readerID), func(loanID string) error {
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
