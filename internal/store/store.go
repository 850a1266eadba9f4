// Package store provides badger-backed persistence for the Circulate
// server. Every circulation operation runs inside a single badger
// transaction covering the loan, its book, and the book's loan set, so
// no reader ever observes a book whose available-copy count is stale
// relative to its loans.
package store

import (
	"context"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/circulateapp/circulate-server/internal/domain"
	"github.com/circulateapp/circulate-server/internal/errors"
)

// SearchIndexer is the interface for updating the catalog search index.
// Store uses this to keep search in sync without depending on the search
// implementation.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, bookID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexBook is a no-op.
func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book) error { return nil }

// DeleteBook is a no-op.
func (NoopSearchIndexer) DeleteBook(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Search indexer for keeping search in sync with catalog changes.
	// Set via SetSearchIndexer after store creation to avoid circular dependencies.
	searchIndexer SearchIndexer
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Internal("failed to open badger db", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
// This is set after store creation to avoid circular dependencies
// (store needs to exist before the search service can be created).
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

// maxTxnRetries bounds the retry loop for transactions that lose a
// serialization conflict. Concurrent borrows against one book both read
// and write the book record, so badger aborts all but one of them with
// ErrConflict; the losers re-run against the committed state.
const maxTxnRetries = 8

// update runs fn inside a read-write transaction, retrying on
// serialization conflicts. Domain errors returned by fn abort the
// transaction and pass through unchanged.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error
	for range maxTxnRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return errors.Conflict("transaction retries exhausted").WithCause(err)
}

// view runs fn inside a read-only transaction.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

// indexBook pushes a book into the search index after a committed write.
// Index failures are logged, never surfaced: search lags behind rather
// than failing catalog writes.
func (s *Store) indexBook(ctx context.Context, book *domain.Book) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.IndexBook(ctx, book); err != nil && s.logger != nil {
		s.logger.Warn("failed to index book", "id", book.ID, "error", err)
	}
}

// unindexBook removes a book from the search index after a committed delete.
func (s *Store) unindexBook(ctx context.Context, bookID string) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.DeleteBook(ctx, bookID); err != nil && s.logger != nil {
		s.logger.Warn("failed to remove book from index", "id", bookID, "error", err)
	}
}
