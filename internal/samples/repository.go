package samples

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/JaimeStill/mimic/internal/metrics"
	"github.com/JaimeStill/mimic/pkg/lifecycle"
	"github.com/JaimeStill/mimic/pkg/storage"
)

type repo struct {
	meta   storage.System
	logger *slog.Logger

	mu      sync.Mutex
	loaded  bool
	samples []Sample
}

// New creates a sample store persisted to the metadata store.
func New(meta storage.System, logger *slog.Logger) System {
	return &repo{
		meta:   meta,
		logger: logger.With("system", "samples"),
	}
}

func (r *repo) Start(lc *lifecycle.Coordinator) {
	lc.OnStartup(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if err := r.ensureLoaded(lc.Context()); err != nil {
			r.logger.Error("sample restore failed", "error", err)
		}
	})
}

func (r *repo) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

func (r *repo) Add(ctx context.Context, features []float64, label string) (Mutation, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Mutation{}, ErrInvalidLabel
	}
	if len(features) == 0 || !finite(features) {
		return Mutation{}, ErrInvalidFeatures
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return Mutation{}, err
	}

	if w := r.width(); w > 0 && len(features) != w {
		return Mutation{}, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(features), w)
	}

	r.samples = append(r.samples, Sample{
		Features:  slices.Clone(features),
		Label:     label,
		CreatedAt: time.Now().UTC(),
	})
	metrics.SamplesStored.Set(float64(len(r.samples)))

	return r.persist(ctx), nil
}

func (r *repo) Remove(ctx context.Context, index int) (Mutation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return Mutation{}, err
	}

	if index < 0 || index >= len(r.samples) {
		return Mutation{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(r.samples))
	}

	r.samples = slices.Delete(r.samples, index, index+1)
	metrics.SamplesStored.Set(float64(len(r.samples)))

	return r.persist(ctx), nil
}

func (r *repo) Clear(ctx context.Context) (Mutation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoaded(ctx); err != nil {
		return Mutation{}, err
	}

	r.samples = nil
	metrics.SamplesStored.Set(0)

	return r.persist(ctx), nil
}

func (r *repo) List(ctx context.Context) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(ctx)

	out := make([]Sample, len(r.samples))
	for i, s := range r.samples {
		s.Features = slices.Clone(s.Features)
		out[i] = s
	}
	return out
}

func (r *repo) Counts(ctx context.Context) map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(ctx)

	counts := make(map[string]int)
	for _, s := range r.samples {
		counts[s.Label]++
	}
	return counts
}

func (r *repo) Width(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(ctx)
	return r.width()
}

func (r *repo) Len(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(ctx)
	return len(r.samples)
}

func (r *repo) width() int {
	if len(r.samples) == 0 {
		return 0
	}
	return len(r.samples[0].Features)
}

// persist writes the whole sample set. Callers hold r.mu.
func (r *repo) persist(ctx context.Context) Mutation {
	data, err := json.Marshal(snapshot{
		Samples:   r.samples,
		Timestamp: time.Now().UTC(),
	})
	if err == nil {
		err = storage.Write(ctx, r.meta, StorageKey, data, "application/json")
	}
	if err == nil {
		return Mutation{Persisted: true}
	}

	if errors.Is(err, storage.ErrQuotaExceeded) {
		err = storage.AsQuotaExceeded("samples", err)
		metrics.RecordQuota(err)
	} else {
		err = fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	r.logger.Warn("sample persistence failed", "count", len(r.samples), "error", err)
	return Mutation{Persisted: false, Warning: err.Error(), Err: err}
}

// load attempts a restore for read paths, which serve the empty set
// until the persisted one is readable. Callers hold r.mu.
func (r *repo) load(ctx context.Context) {
	if err := r.ensureLoaded(ctx); err != nil {
		r.logger.Warn("sample restore failed", "error", err)
	}
}

// ensureLoaded restores the persisted set once. A missing blob is an
// empty store and an undecodable one is logged and treated as empty. Read
// failures leave the store unloaded so a later call retries and no
// mutation overwrites the saved set. Callers hold r.mu.
func (r *repo) ensureLoaded(ctx context.Context) error {
	if r.loaded {
		return nil
	}

	data, err := storage.Read(ctx, r.meta, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		r.loaded = true
		return nil
	case err != nil:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	r.loaded = true

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		r.logger.Warn("sample blob unreadable, starting empty", "error", err)
		return nil
	}

	width := 0
	dropped := 0
	for _, s := range snap.Samples {
		s.Label = strings.TrimSpace(s.Label)
		if s.Label == "" || len(s.Features) == 0 || !finite(s.Features) {
			dropped++
			continue
		}
		if width == 0 {
			width = len(s.Features)
		}
		if len(s.Features) != width {
			dropped++
			continue
		}
		r.samples = append(r.samples, s)
	}

	metrics.SamplesStored.Set(float64(len(r.samples)))
	r.logger.Info("samples restored", "count", len(r.samples), "dropped", dropped, "saved_at", snap.Timestamp)
	return nil
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
