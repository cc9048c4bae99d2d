package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/JaimeStill/mimic/pkg/lifecycle"
)

type badgerStore struct {
	db     *badger.DB
	prefix []byte
	logger *slog.Logger
}

// newBadger opens the BadgerDB directory at cfg.Path. Keys are scoped
// under cfg.ContainerName so several stores can share one directory.
func newBadger(cfg *Config, logger *slog.Logger) (System, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", cfg.Path, err)
	}

	return &badgerStore{
		db:     db,
		prefix: []byte(cfg.ContainerName + "/"),
		logger: logger.With("system", "storage", "provider", ProviderBadger),
	}, nil
}

func (b *badgerStore) key(key string) []byte {
	return append(bytes.Clone(b.prefix), key...)
}

func (b *badgerStore) Start(lc *lifecycle.Coordinator) error {
	b.logger.Info("starting storage system", "prefix", string(b.prefix))

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := b.db.Close(); err != nil {
			b.logger.Error("badger close failed", "error", err)
			return
		}
		b.logger.Info("badger closed")
	})

	return nil
}

func (b *badgerStore) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload %s: %w", key, err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key(key), data)
	})
}

func (b *badgerStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(result)), nil
}

func (b *badgerStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(b.key(key)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(b.key(key))
	})
}

func (b *badgerStore) Exists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	var exists bool
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(b.key(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}
