package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	apperrors "photo-album/internal/errors"
	"photo-album/internal/models"
)

const recordPrefix = "image:"

// BadgerStore keeps one key per record in an embedded badger database.
// Each Put is its own transaction, so there is no whole-document rewrite.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a badger database in dir. An empty dir
// opens an in-memory database.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func recordKey(id string) []byte {
	return []byte(recordPrefix + id)
}

func (s *BadgerStore) Get(_ context.Context, id string) (*models.ImageRecord, error) {
	var record models.ImageRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}

	record.ID = id
	return &record, nil
}

func (s *BadgerStore) Put(_ context.Context, id string, record *models.ImageRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(id), data)
	})
}

// List iterates the record prefix; badger keys are sorted, so records come
// back ordered by identifier.
func (s *BadgerStore) List(_ context.Context) ([]*models.ImageRecord, error) {
	var records []*models.ImageRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(recordPrefix):])

			var record models.ImageRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return fmt.Errorf("%w: record %s: %v", apperrors.ErrStoreCorrupt, id, err)
			}
			record.ID = id
			records = append(records, &record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
