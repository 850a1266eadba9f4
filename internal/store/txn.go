package store

import (
	"encoding/json/v2"

	"github.com/dgraph-io/badger/v4"

	"github.com/circulateapp/circulate-server/internal/errors"
)

// txnGet loads and unmarshals a record inside a transaction.
// Returns notFound when the key does not exist.
func txnGet[T any](txn *badger.Txn, key []byte, notFound error) (*T, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, errors.Internal("failed to get key", err)
	}

	var entity T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entity)
	})
	if err != nil {
		return nil, errors.Internal("failed to unmarshal entity", err)
	}
	return &entity, nil
}

// txnSet marshals and writes a record inside a transaction.
func txnSet[T any](txn *badger.Txn, key []byte, entity *T) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return errors.Internal("failed to marshal entity", err)
	}
	if err := txn.Set(key, data); err != nil {
		return errors.Internal("failed to set key", err)
	}
	return nil
}

// txnExists reports whether a key is present.
func txnExists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Internal("failed to check key", err)
	}
	return true, nil
}

// txnScan iterates all records under a prefix, invoking fn for each.
func txnScan[T any](txn *badger.Txn, prefix []byte, fn func(*T) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var entity T
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &entity)
		})
		if err != nil {
			return errors.Internal("failed to unmarshal entity", err)
		}
		if err := fn(&entity); err != nil {
			return err
		}
	}
	return nil
}

// txnScanIDs iterates an index prefix, invoking fn with each referenced ID.
func txnScanIDs(txn *badger.Txn, prefix []byte, fn func(id string) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var id string
		err := it.Item().Value(func(val []byte) error {
			id = string(val)
			return nil
		})
		if err != nil {
			return errors.Internal("failed to read index value", err)
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}
