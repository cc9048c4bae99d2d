package samples_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/JaimeStill/mimic/internal/samples"
	"github.com/JaimeStill/mimic/pkg/lifecycle"
	"github.com/JaimeStill/mimic/pkg/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingStore fails every upload with uploadErr and delegates the rest.
type failingStore struct {
	*storage.Memory
	uploadErr error
}

func (f *failingStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	return f.uploadErr
}

// flakyStore fails its first fails downloads, then delegates.
type flakyStore struct {
	*storage.Memory
	fails int
}

func (f *flakyStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if f.fails > 0 {
		f.fails--
		return nil, errors.New("connection reset")
	}
	return f.Memory.Download(ctx, key)
}

func TestAdd(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		seed     [][]float64
		features []float64
		label    string
		wantErr  error
	}{
		{"first sample fixes width", nil, []float64{1, 2, 3}, "open", nil},
		{"matching width", [][]float64{{1, 2}}, []float64{3, 4}, "fist", nil},
		{"width mismatch", [][]float64{{1, 2}}, []float64{3}, "fist", samples.ErrDimensionMismatch},
		{"blank label", nil, []float64{1}, "   ", samples.ErrInvalidLabel},
		{"empty features", nil, nil, "open", samples.ErrInvalidFeatures},
		{"non-finite features", nil, []float64{math.NaN()}, "open", samples.ErrInvalidFeatures},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := samples.New(storage.NewMemory(), discard())
			for _, f := range tt.seed {
				if _, err := store.Add(ctx, f, "seed"); err != nil {
					t.Fatalf("seed Add() error = %v", err)
				}
			}
			before := store.Len(ctx)

			m, err := store.Add(ctx, tt.features, tt.label)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Add() error = %v, want %v", err, tt.wantErr)
				}
				if store.Len(ctx) != before {
					t.Error("rejected Add() mutated the store")
				}
				return
			}
			if err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			if !m.Persisted {
				t.Errorf("Persisted = false, warning %q", m.Warning)
			}
			if store.Width(ctx) != len(tt.features) {
				t.Errorf("Width() = %d, want %d", store.Width(ctx), len(tt.features))
			}
		})
	}
}

func TestAddTrimsLabel(t *testing.T) {
	ctx := context.Background()
	store := samples.New(storage.NewMemory(), discard())

	if _, err := store.Add(ctx, []float64{1}, "  peace "); err != nil {
		t.Fatal(err)
	}
	if got := store.List(ctx)[0].Label; got != "peace" {
		t.Errorf("Label = %q, want peace", got)
	}
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	store := samples.New(storage.NewMemory(), discard())

	for _, l := range []string{"a", "b", "c"} {
		if _, err := store.Add(ctx, []float64{1, 2}, l); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := store.Remove(ctx, 3); !errors.Is(err, samples.ErrIndexOutOfRange) {
		t.Errorf("Remove(3) error = %v, want ErrIndexOutOfRange", err)
	}
	if _, err := store.Remove(ctx, -1); !errors.Is(err, samples.ErrIndexOutOfRange) {
		t.Errorf("Remove(-1) error = %v, want ErrIndexOutOfRange", err)
	}

	if _, err := store.Remove(ctx, 1); err != nil {
		t.Fatalf("Remove(1) error = %v", err)
	}
	list := store.List(ctx)
	if len(list) != 2 || list[0].Label != "a" || list[1].Label != "c" {
		t.Errorf("List() after remove = %+v", list)
	}

	if m, err := store.Clear(ctx); err != nil || !m.Persisted {
		t.Errorf("Clear() = %+v, %v", m, err)
	}
	if store.Len(ctx) != 0 || store.Width(ctx) != 0 {
		t.Error("store not empty after Clear")
	}

	if _, err := store.Add(ctx, []float64{1, 2, 3, 4}, "wide"); err != nil {
		t.Errorf("Add() after clear should accept a new width: %v", err)
	}
}

func TestCounts(t *testing.T) {
	ctx := context.Background()
	store := samples.New(storage.NewMemory(), discard())

	for _, l := range []string{"cat", "dog", "cat", "cat"} {
		if _, err := store.Add(ctx, []float64{0}, l); err != nil {
			t.Fatal(err)
		}
	}

	counts := store.Counts(ctx)
	if counts["cat"] != 3 || counts["dog"] != 1 || len(counts) != 2 {
		t.Errorf("Counts() = %v", counts)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	first := samples.New(mem, discard())
	if _, err := first.Add(ctx, []float64{0.1, 0.2}, "open"); err != nil {
		t.Fatal(err)
	}
	if _, err := first.Add(ctx, []float64{0.3, 0.4}, "fist"); err != nil {
		t.Fatal(err)
	}

	second := samples.New(mem, discard())
	lc := lifecycle.New()
	second.Start(lc)
	lc.WaitForStartup()

	if !second.Ready() {
		t.Error("Ready() = false after startup")
	}
	list := second.List(ctx)
	if len(list) != 2 || list[1].Label != "fist" || list[1].Features[1] != 0.4 {
		t.Errorf("restored = %+v", list)
	}
}

func TestRestoreCorruptBlob(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	if err := storage.Write(ctx, mem, samples.StorageKey, []byte("{not json"), ""); err != nil {
		t.Fatal(err)
	}

	store := samples.New(mem, discard())
	if store.Len(ctx) != 0 {
		t.Errorf("Len() = %d, want 0", store.Len(ctx))
	}
}

func TestRestoreRetriesAfterReadFailure(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	seed := samples.New(mem, discard())
	for i := range 5 {
		if _, err := seed.Add(ctx, []float64{float64(i), 1}, "open"); err != nil {
			t.Fatal(err)
		}
	}

	store := samples.New(&flakyStore{Memory: mem, fails: 1}, discard())

	if _, err := store.Add(ctx, []float64{9, 9}, "fist"); !errors.Is(err, samples.ErrUnavailable) {
		t.Fatalf("Add() during failed read error = %v, want ErrUnavailable", err)
	}
	if store.Ready() {
		t.Error("Ready() = true after failed read")
	}
	if fresh := samples.New(mem, discard()); fresh.Len(ctx) != 5 {
		t.Fatalf("persisted Len() = %d after refused Add, want 5", fresh.Len(ctx))
	}

	if _, err := store.Add(ctx, []float64{9, 9}, "fist"); err != nil {
		t.Fatalf("Add() after recovery error = %v", err)
	}
	if store.Len(ctx) != 6 {
		t.Errorf("Len() = %d, want 6", store.Len(ctx))
	}

	fresh := samples.New(mem, discard())
	if fresh.Len(ctx) != 6 {
		t.Errorf("persisted Len() = %d, want 6", fresh.Len(ctx))
	}
}

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()

	t.Run("quota", func(t *testing.T) {
		store := samples.New(storage.WithQuota(storage.NewMemory(), 16), discard())

		m, err := store.Add(ctx, []float64{1, 2, 3}, "open")
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if m.Persisted {
			t.Fatal("expected persistence failure")
		}

		var qe *storage.QuotaExceededError
		if !errors.As(m.Err, &qe) || qe.Store != "samples" {
			t.Errorf("Err = %v, want QuotaExceededError{samples}", m.Err)
		}
		if store.Len(ctx) != 1 {
			t.Errorf("Len() = %d, want 1", store.Len(ctx))
		}
	})

	t.Run("other failure", func(t *testing.T) {
		mem := &failingStore{Memory: storage.NewMemory(), uploadErr: errors.New("disk unplugged")}
		store := samples.New(mem, discard())

		m, err := store.Add(ctx, []float64{1}, "open")
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if m.Persisted || !errors.Is(m.Err, samples.ErrPersistenceFailed) {
			t.Errorf("Mutation = %+v, want ErrPersistenceFailed", m)
		}
		if m.Warning == "" {
			t.Error("expected a warning")
		}
		if store.Len(ctx) != 1 {
			t.Errorf("Len() = %d, want 1", store.Len(ctx))
		}
	})
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := samples.New(storage.NewMemory(), discard())
	if _, err := store.Add(ctx, []float64{1, 2}, "a"); err != nil {
		t.Fatal(err)
	}

	list := store.List(ctx)
	list[0].Features[0] = 99

	if got := store.List(ctx)[0].Features[0]; got != 1 {
		t.Errorf("stored feature = %v, want 1", got)
	}
}
