package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/JaimeStill/mimic/pkg/lifecycle"
)

type boltStore struct {
	db     *bolt.DB
	bucket []byte
	logger *slog.Logger
}

// newBolt opens (or creates) the bbolt file at cfg.Path and ensures the
// bucket named by cfg.ContainerName exists.
func newBolt(cfg *Config, logger *slog.Logger) (System, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", cfg.Path, err)
	}

	bucket := []byte(cfg.ContainerName)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", cfg.ContainerName, err)
	}

	return &boltStore{
		db:     db,
		bucket: bucket,
		logger: logger.With("system", "storage", "provider", ProviderBolt),
	}, nil
}

func (b *boltStore) Start(lc *lifecycle.Coordinator) error {
	b.logger.Info("starting storage system", "path", b.db.Path(), "bucket", string(b.bucket))

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := b.db.Close(); err != nil {
			b.logger.Error("bolt close failed", "error", err)
			return
		}
		b.logger.Info("bolt closed")
	})

	return nil
}

func (b *boltStore) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload %s: %w", key, err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), data)
	})
}

func (b *boltStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var result []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(b.bucket).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		// bolt values are only valid inside the transaction
		result = bytes.Clone(data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(result)), nil
}

func (b *boltStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return bucket.Delete([]byte(key))
	})
}

func (b *boltStore) Exists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	var exists bool
	err := b.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(b.bucket).Get([]byte(key)) != nil
		return nil
	})
	return exists, err
}
