package storage

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tailorck/parqr/internal/tfidf"
)

const modelKeyPrefix = "model:"

// BadgerModelStore implements ModelStore using BadgerDB. Each sub-model
// artifact (vectorizer, matrix, post id list) is gob-encoded as one value,
// so a Put is atomic and a reader never observes a half-written model.
type BadgerModelStore struct {
	db *badger.DB
}

// NewBadgerModelStore opens or creates a Badger database at path.
func NewBadgerModelStore(path string) (*BadgerModelStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open model store: %w", err)
	}
	return &BadgerModelStore{db: db}, nil
}

func modelKey(courseID, kind string) []byte {
	return []byte(modelKeyPrefix + courseID + ":" + kind)
}

// Put stores one sub-model artifact as a single atomic unit.
func (s *BadgerModelStore) Put(ctx context.Context, courseID, kind string, model *tfidf.Model) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(model); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(modelKey(courseID, kind), buf.Bytes())
	})
	if err != nil {
		return fmt.Errorf("failed to store model %s/%s: %w", courseID, kind, err)
	}
	return nil
}

// Get loads one sub-model artifact, or ErrModelNotFound.
func (s *BadgerModelStore) Get(ctx context.Context, courseID, kind string) (*tfidf.Model, error) {
	var model tfidf.Model
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(modelKey(courseID, kind))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("model %s/%s: %w", courseID, kind, ErrModelNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&model)
		})
	})
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// Delete removes the artifact if present; absent artifacts are not an error.
func (s *BadgerModelStore) Delete(ctx context.Context, courseID, kind string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(modelKey(courseID, kind))
	})
	if err != nil {
		return fmt.Errorf("failed to delete model %s/%s: %w", courseID, kind, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BadgerModelStore) Close() error {
	return s.db.Close()
}
