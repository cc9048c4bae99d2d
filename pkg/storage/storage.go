// Package storage provides keyed blob storage with interchangeable providers
// (Azure Blob Storage, bbolt, BadgerDB, in-memory) and an optional byte quota.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/mimic/pkg/lifecycle"
)

// Provider names accepted by Config.Provider.
const (
	ProviderAzure  = "azure"
	ProviderBolt   = "bolt"
	ProviderBadger = "badger"
	ProviderMemory = "memory"
)

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
	// Upload stores the contents of reader at the given key, replacing any existing blob.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the blob at the given key. The caller must close the reader.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at the given key. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a blob exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates the storage system selected by cfg.Provider. When cfg.Quota is
// set the provider is wrapped with a byte quota.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	var (
		sys System
		err error
	)

	switch cfg.Provider {
	case ProviderAzure:
		sys, err = newAzure(cfg, logger)
	case ProviderBolt:
		sys, err = newBolt(cfg, logger)
	case ProviderBadger:
		sys, err = newBadger(cfg, logger)
	case ProviderMemory:
		sys = NewMemory()
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	limit, err := cfg.QuotaBytes()
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		sys = WithQuota(sys, limit)
	}

	return sys, nil
}

// Read downloads the blob at key and returns its full contents.
func Read(ctx context.Context, s System, key string) ([]byte, error) {
	body, err := s.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

// Write uploads data to key.
func Write(ctx context.Context, s System, key string, data []byte, contentType string) error {
	return s.Upload(ctx, key, bytes.NewReader(data), contentType)
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
