package storage_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/JaimeStill/mimic/pkg/storage"
)

func TestQuota(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects writes past the budget", func(t *testing.T) {
		q := storage.WithQuota(storage.NewMemory(), 10)

		if err := storage.Write(ctx, q, "a", bytes.Repeat([]byte("x"), 6), ""); err != nil {
			t.Fatalf("first write error = %v", err)
		}
		err := storage.Write(ctx, q, "b", bytes.Repeat([]byte("x"), 5), "")
		if !errors.Is(err, storage.ErrQuotaExceeded) {
			t.Fatalf("second write error = %v, want ErrQuotaExceeded", err)
		}
		if q.Used() != 6 {
			t.Errorf("Used() = %d, want 6", q.Used())
		}
	})

	t.Run("overwriting a key replaces its usage", func(t *testing.T) {
		q := storage.WithQuota(storage.NewMemory(), 10)

		if err := storage.Write(ctx, q, "a", bytes.Repeat([]byte("x"), 8), ""); err != nil {
			t.Fatalf("write error = %v", err)
		}
		if err := storage.Write(ctx, q, "a", bytes.Repeat([]byte("x"), 9), ""); err != nil {
			t.Fatalf("overwrite error = %v", err)
		}
		if q.Used() != 9 {
			t.Errorf("Used() = %d, want 9", q.Used())
		}
	})

	t.Run("delete frees space", func(t *testing.T) {
		q := storage.WithQuota(storage.NewMemory(), 10)

		if err := storage.Write(ctx, q, "a", bytes.Repeat([]byte("x"), 10), ""); err != nil {
			t.Fatalf("write error = %v", err)
		}
		if err := q.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := storage.Write(ctx, q, "b", bytes.Repeat([]byte("x"), 10), ""); err != nil {
			t.Fatalf("write after delete error = %v", err)
		}
	})

	t.Run("download tracks pre-existing blobs", func(t *testing.T) {
		mem := storage.NewMemory()
		if err := storage.Write(ctx, mem, "old", bytes.Repeat([]byte("x"), 7), ""); err != nil {
			t.Fatalf("seed error = %v", err)
		}

		q := storage.WithQuota(mem, 10)
		if _, err := storage.Read(ctx, q, "old"); err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if q.Used() != 7 {
			t.Fatalf("Used() = %d, want 7", q.Used())
		}
		if err := storage.Write(ctx, q, "new", bytes.Repeat([]byte("x"), 4), ""); !errors.Is(err, storage.ErrQuotaExceeded) {
			t.Errorf("write error = %v, want ErrQuotaExceeded", err)
		}
	})
}
