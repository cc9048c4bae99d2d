package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/mimic/internal/metrics"
	"github.com/JaimeStill/mimic/pkg/lifecycle"
	"github.com/JaimeStill/mimic/pkg/storage"
)

const evictionConcurrency = 4

type repo struct {
	artifacts storage.System
	meta      storage.System
	retain    int
	logger    *slog.Logger

	mu      sync.RWMutex
	loaded  bool
	entries []Entry
}

// New creates a catalog over the artifact and metadata stores. retain <= 0
// uses DefaultRetain.
func New(artifacts, meta storage.System, retain int, logger *slog.Logger) System {
	if retain <= 0 {
		retain = DefaultRetain
	}
	return &repo{
		artifacts: artifacts,
		meta:      meta,
		retain:    retain,
		logger:    logger.With("system", "catalog"),
	}
}

func (r *repo) Start(lc *lifecycle.Coordinator) {
	lc.OnStartup(func() {
		if err := r.ensureLoaded(lc.Context()); err != nil {
			r.logger.Error("catalog restore failed", "error", err)
		}
	})
}

func (r *repo) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

func (r *repo) List(ctx context.Context) ([]Entry, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entries), nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Entry, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (r *repo) FindByName(ctx context.Context, name string) (*Entry, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexByName(name); i >= 0 {
		e := r.entries[i]
		return &e, nil
	}
	return nil, ErrNotFound
}

func (r *repo) Put(ctx context.Context, entry Entry, artifact []byte) (*PutResult, error) {
	if err := validate(entry); err != nil {
		return nil, err
	}
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexByName(entry.Name) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, entry.Name)
	}

	if err := storage.Write(ctx, r.artifacts, entry.StorageKey, artifact, "application/json"); err != nil {
		return nil, fmt.Errorf("%w: upload artifact: %w", ErrPersistenceFailed, err)
	}

	next := append(slices.Clone(r.entries), entry)
	err := r.writeIndex(ctx, next)
	if err == nil {
		r.entries = next
		metrics.ModelsStored.Set(float64(len(r.entries)))
		r.logger.Info("model stored", "id", entry.ID, "name", entry.Name)
		return &PutResult{Entry: entry}, nil
	}

	if !errors.Is(err, storage.ErrQuotaExceeded) {
		r.compensate(ctx, entry.StorageKey)
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	kept, evicted := r.partition()
	if len(evicted) == 0 {
		err = storage.AsQuotaExceeded("catalog", err)
		metrics.RecordQuota(err)
		r.compensate(ctx, entry.StorageKey)
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	r.logger.Warn(
		"catalog quota exceeded, evicting oldest models",
		"evicting", len(evicted),
		"retain", r.retain,
	)

	next = append(kept, entry)
	if err := r.writeIndex(ctx, next); err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			err = storage.AsQuotaExceeded("catalog", err)
			metrics.RecordQuota(err)
		}
		r.compensate(ctx, entry.StorageKey)
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	r.entries = next
	r.deleteArtifacts(ctx, evicted)
	metrics.EvictionsTotal.Add(float64(len(evicted)))
	metrics.ModelsStored.Set(float64(len(r.entries)))

	r.logger.Info("model stored", "id", entry.ID, "name", entry.Name, "evicted", len(evicted))
	return &PutResult{Entry: entry, Evicted: evicted}, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.ensureLoaded(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.entries, func(e Entry) bool { return e.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	entry := r.entries[i]

	next := slices.Delete(slices.Clone(r.entries), i, i+1)
	if err := r.writeIndex(ctx, next); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceFailed, storage.AsQuotaExceeded("catalog", err))
	}
	r.entries = next
	metrics.ModelsStored.Set(float64(len(r.entries)))

	if err := r.artifacts.Delete(ctx, entry.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn(
			"artifact delete failed after catalog delete",
			"key", entry.StorageKey,
			"error", err,
		)
	}

	r.logger.Info("model deleted", "id", id, "name", entry.Name)
	return nil
}

func (r *repo) Artifact(ctx context.Context, key string) ([]byte, error) {
	data, err := storage.Read(ctx, r.artifacts, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, key)
		}
		return nil, fmt.Errorf("read artifact %s: %w", key, err)
	}
	return data, nil
}

// indexByName returns the position of the case-insensitive name match or -1.
func (r *repo) indexByName(name string) int {
	name = strings.TrimSpace(name)
	return slices.IndexFunc(r.entries, func(e Entry) bool {
		return strings.EqualFold(e.Name, name)
	})
}

// partition splits current entries into the newest r.retain (kept, in
// insertion order) and the rest.
func (r *repo) partition() (kept, evicted []Entry) {
	if len(r.entries) <= r.retain {
		return slices.Clone(r.entries), nil
	}

	keep := make(map[uuid.UUID]bool, r.retain)
	for _, e := range newestFirst(r.entries)[:r.retain] {
		keep[e.ID] = true
	}

	for _, e := range r.entries {
		if keep[e.ID] {
			kept = append(kept, e)
		} else {
			evicted = append(evicted, e)
		}
	}
	return kept, evicted
}

// deleteArtifacts removes evicted artifacts concurrently. Failures are
// logged and do not stop the remaining deletes.
func (r *repo) deleteArtifacts(ctx context.Context, evicted []Entry) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(evictionConcurrency)

	for _, e := range evicted {
		g.Go(func() error {
			if err := r.artifacts.Delete(gctx, e.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
				r.logger.Warn("evicted artifact delete failed", "id", e.ID, "key", e.StorageKey, "error", err)
			}
			return nil
		})
	}
	g.Wait()
}

func (r *repo) compensate(ctx context.Context, key string) {
	if err := r.artifacts.Delete(ctx, key); err != nil {
		r.logger.Warn("compensating artifact delete failed", "key", key, "error", err)
	}
}

func (r *repo) writeIndex(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return storage.Write(ctx, r.meta, IndexKey, data, "application/json")
}

// ensureLoaded restores the index once. A missing blob is an empty
// catalog; an undecodable one is logged and treated as empty. Read
// failures are returned so a later call can retry.
func (r *repo) ensureLoaded(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}

	data, err := storage.Read(ctx, r.meta, IndexKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("read catalog: %w", err)
	default:
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			r.logger.Warn("catalog index unreadable, starting empty", "error", err)
			break
		}
		r.entries = entries
	}

	r.loaded = true
	metrics.ModelsStored.Set(float64(len(r.entries)))
	r.logger.Info("catalog restored", "models", len(r.entries))
	return nil
}

func validate(e Entry) error {
	switch {
	case e.ID == uuid.Nil:
		return fmt.Errorf("%w: missing id", ErrInvalidEntry)
	case strings.TrimSpace(e.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalidEntry)
	case e.StorageKey == "":
		return fmt.Errorf("%w: missing storage key", ErrInvalidEntry)
	case len(e.Labels) == 0:
		return fmt.Errorf("%w: missing labels", ErrInvalidEntry)
	}
	return nil
}

// newestFirst orders entries by creation time, newest first.
func newestFirst(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return out
}
