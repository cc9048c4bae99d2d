package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/JaimeStill/mimic/pkg/lifecycle"
)

// Quota wraps a System with a total byte budget shared by every key written
// through it. Usage is tracked for keys observed via Upload or Download, so
// blobs persisted by an earlier process count once they are read.
type Quota struct {
	inner System
	limit int64

	mu    sync.Mutex
	sizes map[string]int64
	used  int64
}

// WithQuota wraps inner with a byte budget of limit.
func WithQuota(inner System, limit int64) *Quota {
	return &Quota{
		inner: inner,
		limit: limit,
		sizes: make(map[string]int64),
	}
}

// Limit returns the configured byte budget.
func (q *Quota) Limit() int64 {
	return q.limit
}

// Used returns the bytes currently attributed to tracked keys.
func (q *Quota) Used() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used
}

func (q *Quota) Start(lc *lifecycle.Coordinator) error {
	return q.inner.Start(lc)
}

func (q *Quota) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload %s: %w", key, err)
	}
	size := int64(len(data))

	q.mu.Lock()
	defer q.mu.Unlock()

	next := q.used - q.sizes[key] + size
	if next > q.limit {
		return fmt.Errorf(
			"%w: %s needs %d bytes, %d of %d in use",
			ErrQuotaExceeded, key, size, q.used-q.sizes[key], q.limit,
		)
	}

	if err := q.inner.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return err
	}

	q.used = next
	q.sizes[key] = size
	return nil
}

func (q *Quota) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := q.inner.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}

	q.mu.Lock()
	q.used += int64(len(data)) - q.sizes[key]
	q.sizes[key] = int64(len(data))
	q.mu.Unlock()

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (q *Quota) Delete(ctx context.Context, key string) error {
	err := q.inner.Delete(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	q.mu.Lock()
	q.used -= q.sizes[key]
	delete(q.sizes, key)
	q.mu.Unlock()

	return err
}

func (q *Quota) Exists(ctx context.Context, key string) (bool, error) {
	return q.inner.Exists(ctx, key)
}
