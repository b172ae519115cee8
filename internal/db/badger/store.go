package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/docsense/retrieval/internal/domain"
)

const (
	recordPrefix = "doc:"
	blobPrefix   = "blob:"
	manifestKey  = "manifest"
)

// Store is a badger-backed db.Store. Badger gives the record store durable
// single-process persistence without an external database, so the engine can
// rebuild its indexes from local disk on restart.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// Config holds badger store settings.
type Config struct {
	// Path is the database directory. Empty with InMemory opens a throwaway
	// in-memory database (tests).
	Path     string
	InMemory bool
	Logger   *zap.Logger
}

// NewStore opens the badger database.
func NewStore(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// PutRecord stores or replaces the payload for id.
func (s *Store) PutRecord(_ context.Context, id string, payload []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(id), payload)
	})
	if err != nil {
		return fmt.Errorf("put record %q: %w", id, err)
	}
	return nil
}

// GetRecord returns the payload for id.
func (s *Store) GetRecord(_ context.Context, id string) ([]byte, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %q: %w", id, err)
	}
	return payload, nil
}

// DeleteRecord removes the payload for id (idempotent).
func (s *Store) DeleteRecord(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(id))
	})
	if err != nil {
		return fmt.Errorf("delete record %q: %w", id, err)
	}
	return nil
}

// EachRecord iterates all stored records.
func (s *Store) EachRecord(_ context.Context, fn func(id string, payload []byte) error) error {
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(recordPrefix):])
			payload, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read record %q: %w", id, err)
			}
			if err := fn(id, payload); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("iterate records: %w", err)
	}
	return nil
}

// CountRecords returns the number of stored records.
func (s *Store) CountRecords(_ context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// PutManifest stores the index manifest blob.
func (s *Store) PutManifest(_ context.Context, payload []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(manifestKey), payload)
	})
	if err != nil {
		return fmt.Errorf("put manifest: %w", err)
	}
	return nil
}

// GetManifest returns the manifest blob, nil when absent.
func (s *Store) GetManifest(_ context.Context) ([]byte, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(manifestKey))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get manifest: %w", err)
	}
	return payload, nil
}

// PutBlob stores an auxiliary blob under key.
func (s *Store) PutBlob(_ context.Context, key string, payload []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(blobPrefix+key), payload)
	})
	if err != nil {
		return fmt.Errorf("put blob %q: %w", key, err)
	}
	return nil
}

// GetBlob returns the blob for key, nil when absent.
func (s *Store) GetBlob(_ context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(blobPrefix + key))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %q: %w", key, err)
	}
	return payload, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	return nil
}

func recordKey(id string) []byte {
	return []byte(recordPrefix + id)
}

// badgerLogger adapts zap to the badger.Logger interface.
type badgerLogger struct {
	logger *zap.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, args ...any) {
	l.logger.Error(fmt.Sprintf(msg, args...))
}

func (l *badgerLogger) Warningf(msg string, args ...any) {
	l.logger.Warn(fmt.Sprintf(msg, args...))
}

func (l *badgerLogger) Infof(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...))
}

func (l *badgerLogger) Debugf(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...))
}
