package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/JaimeStill/mimic/internal/catalog"
	"github.com/JaimeStill/mimic/internal/features"
	"github.com/JaimeStill/mimic/internal/inference"
	"github.com/JaimeStill/mimic/internal/runs"
	"github.com/JaimeStill/mimic/internal/samples"
	"github.com/JaimeStill/mimic/internal/trainer"
	"github.com/JaimeStill/mimic/pkg/lifecycle"
	"github.com/JaimeStill/mimic/pkg/middleware"
)

// Deps are the collaborators a studio composes. Validator is optional;
// Extractor defaults to features.Default().
type Deps struct {
	Samples   samples.System
	Catalog   catalog.System
	Trainer   trainer.System
	Engine    inference.System
	Runs      runs.System
	Extractor features.Extractor
	Validator inference.Validator
	Lifecycle *lifecycle.Coordinator
}

type studio struct {
	deps     Deps
	logger   *slog.Logger
	training atomic.Bool
}

// New creates a studio over deps.
func New(deps Deps, logger *slog.Logger) System {
	if deps.Extractor == nil {
		deps.Extractor = features.Default()
	}
	return &studio{
		deps:   deps,
		logger: logger.With("system", "studio"),
	}
}

func (s *studio) Handler(cors *middleware.CORSConfig) *Handler {
	return NewHandler(s, s.logger, cors)
}

func (s *studio) AddSample(ctx context.Context, in features.Input, label string) (*SampleResult, error) {
	vec, err := s.deps.Extractor.Extract(ctx, in)
	if err != nil {
		return nil, err
	}

	m, err := s.deps.Samples.Add(ctx, vec, label)
	if err != nil {
		return nil, err
	}
	return &SampleResult{
		Mutation: m,
		Count:    s.deps.Samples.Len(ctx),
		Width:    len(vec),
	}, nil
}

func (s *studio) RemoveSample(ctx context.Context, index int) (samples.Mutation, error) {
	return s.deps.Samples.Remove(ctx, index)
}

func (s *studio) ClearSamples(ctx context.Context) (samples.Mutation, error) {
	return s.deps.Samples.Clear(ctx)
}

func (s *studio) Samples(ctx context.Context) []samples.Sample {
	return s.deps.Samples.List(ctx)
}

func (s *studio) SampleCounts(ctx context.Context) map[string]int {
	return s.deps.Samples.Counts(ctx)
}

func (s *studio) Train(ctx context.Context, name string, overwrite bool) (*trainer.Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if !s.training.CompareAndSwap(false, true) {
		return nil, ErrTrainingInProgress
	}
	defer s.training.Store(false)

	set := s.deps.Samples.List(ctx)
	if len(set) == 0 {
		if !s.deps.Samples.Ready() {
			return nil, samples.ErrUnavailable
		}
		return nil, trainer.ErrEmptyDataset
	}

	existing, err := s.deps.Catalog.FindByName(ctx, name)
	switch {
	case err == nil:
		if !overwrite {
			return nil, fmt.Errorf("%w: %s", catalog.ErrDuplicateName, name)
		}
		if err := s.DeleteModel(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("replace %s: %w", name, err)
		}
		s.logger.Info("replacing model", "name", name, "previous", existing.ID)
	case !errors.Is(err, catalog.ErrNotFound):
		return nil, err
	}

	result, err := s.deps.Trainer.Train(s.runContext(), set, name)
	if err != nil {
		return nil, err
	}

	for _, e := range result.Evicted {
		if s.deps.Engine.Release(e.ID) {
			s.logger.Info("released evicted model", "id", e.ID, "name", e.Name)
		}
	}
	return result, nil
}

// runContext outlives the request so a client disconnect does not abandon
// a run; server shutdown still stops it between epochs.
func (s *studio) runContext() context.Context {
	if s.deps.Lifecycle != nil {
		return s.deps.Lifecycle.Context()
	}
	return context.Background()
}

func (s *studio) ListModels(ctx context.Context) ([]catalog.Entry, error) {
	return s.deps.Catalog.List(ctx)
}

func (s *studio) FindModel(ctx context.Context, id uuid.UUID) (*catalog.Entry, error) {
	return s.deps.Catalog.Find(ctx, id)
}

func (s *studio) SelectModel(ctx context.Context, id uuid.UUID) (*catalog.Entry, error) {
	return s.deps.Engine.Select(ctx, id)
}

func (s *studio) DeleteModel(ctx context.Context, id uuid.UUID) error {
	if err := s.deps.Catalog.Delete(ctx, id); err != nil {
		return err
	}
	if s.deps.Engine.Release(id) {
		s.logger.Info("released deleted model", "id", id)
	}
	return nil
}

func (s *studio) Predict(ctx context.Context, in features.Input, signal *inference.Signal) (inference.Decision, error) {
	vec, err := s.deps.Extractor.Extract(ctx, in)
	if err != nil {
		return inference.Decision{}, err
	}

	d, err := s.deps.Engine.Predict(ctx, vec)
	if err != nil {
		return inference.Decision{}, err
	}

	if signal != nil && s.deps.Validator != nil {
		d = s.deps.Validator.Validate(d, *signal)
	}
	return d, nil
}

func (s *studio) SetConfidenceThreshold(v float64) error {
	return s.deps.Engine.SetConfidenceThreshold(v)
}

func (s *studio) SetDebugMode(enabled bool) {
	s.deps.Engine.SetDebug(enabled)
}

func (s *studio) Status(ctx context.Context) Status {
	st := Status{
		Engine:      s.deps.Engine.Status(),
		Samples:     s.deps.Samples.Len(ctx),
		SampleWidth: s.deps.Samples.Width(ctx),
		LabelCounts: s.deps.Samples.Counts(ctx),
		Training:    s.training.Load(),
	}
	if models, err := s.deps.Catalog.List(ctx); err == nil {
		st.Models = len(models)
	} else {
		s.logger.Warn("catalog unavailable for status", "error", err)
	}
	return st
}

func (s *studio) Runs(ctx context.Context, limit int) ([]runs.Run, error) {
	return s.deps.Runs.List(ctx, limit)
}
