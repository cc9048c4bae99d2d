package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/mimic/internal/catalog"
	"github.com/JaimeStill/mimic/internal/labels"
	"github.com/JaimeStill/mimic/internal/metrics"
	"github.com/JaimeStill/mimic/pkg/nn"
	"github.com/JaimeStill/mimic/pkg/ratelog"
)

type engine struct {
	catalog  catalog.System
	logger   *slog.Logger
	frameLog *slog.Logger

	mu        sync.RWMutex
	state     State
	gen       uint64
	loading   uuid.UUID
	entry     *catalog.Entry
	net       *nn.Network
	threshold float64
	debug     bool
}

// New creates an unselected engine reading models from cat.
func New(cat catalog.System, cfg Config, logger *slog.Logger) System {
	threshold := cfg.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	logger = logger.With("system", "inference")
	return &engine{
		catalog:   cat,
		logger:    logger,
		frameLog:  ratelog.New(logger, cfg.LogInterval, 1),
		state:     StateUnselected,
		threshold: threshold,
		debug:     cfg.Debug,
	}
}

func (e *engine) Select(ctx context.Context, id uuid.UUID) (*catalog.Entry, error) {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.state = StateLoading
	e.loading = id
	e.entry, e.net = nil, nil
	e.mu.Unlock()

	entry, net, err := e.load(ctx, id)

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		return nil, fmt.Errorf("%w: selection superseded", ErrArtifactLoadFailed)
	}
	e.loading = uuid.Nil
	if err != nil {
		e.state = StateUnselected
		e.logger.Warn("model selection failed", "id", id, "error", err)
		return nil, err
	}

	e.state = StateReady
	e.entry, e.net = entry, net
	e.logger.Info("model selected", "id", id, "name", entry.Name, "labels", len(entry.Labels))
	return entry, nil
}

func (e *engine) load(ctx context.Context, id uuid.UUID) (*catalog.Entry, *nn.Network, error) {
	entry, err := e.catalog.Find(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrModelNotFound, id)
		}
		return nil, nil, err
	}

	codec, err := labels.FromEntry(entry.Labels, entry.LabelMap)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrArtifactLoadFailed, err)
	}

	data, err := e.catalog.Artifact(ctx, entry.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrArtifactLoadFailed, err)
	}

	net, err := nn.Unmarshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrArtifactLoadFailed, err)
	}

	// Single-label models carry one sigmoid output, so width equals K.
	if net.OutputWidth() != codec.Len() {
		return nil, nil, fmt.Errorf(
			"%w: artifact has %d outputs for %d labels",
			ErrArtifactLoadFailed, net.OutputWidth(), codec.Len(),
		)
	}
	if entry.FeatureWidth > 0 && net.Input != entry.FeatureWidth {
		return nil, nil, fmt.Errorf(
			"%w: artifact expects %d features, entry records %d",
			ErrArtifactLoadFailed, net.Input, entry.FeatureWidth,
		)
	}

	return entry, net, nil
}

func (e *engine) Release(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A release during loading supersedes the in-flight selection.
	loading := e.state == StateLoading && e.loading == id
	if !loading && (e.entry == nil || e.entry.ID != id) {
		return false
	}
	e.clear()
	e.logger.Info("model released", "id", id)
	return true
}

func (e *engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clear()
}

func (e *engine) clear() {
	e.gen++
	e.state = StateUnselected
	e.loading = uuid.Nil
	e.entry, e.net = nil, nil
}

func (e *engine) Predict(ctx context.Context, features []float64) (Decision, error) {
	start := time.Now()

	e.mu.RLock()
	state, entry, net := e.state, e.entry, e.net
	threshold, debug := e.threshold, e.debug
	e.mu.RUnlock()

	if state != StateReady {
		return Decision{}, ErrNotReady
	}
	if len(features) != net.Input {
		return Decision{}, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(features), net.Input)
	}

	p, err := net.Forward(features)
	if err != nil {
		metrics.RecordPrediction(metrics.OutcomeFailed, time.Since(start))
		e.frameLog.WarnContext(ctx, "prediction failed", "model", entry.ID, "error", err)
		return Decision{}, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	d := Gate(p, entry.Labels, threshold, debug)
	d.ModelID = entry.ID

	metrics.RecordPrediction(outcome(d), time.Since(start))
	e.frameLog.DebugContext(
		ctx, "prediction",
		"model", entry.Name,
		"candidate", d.Candidate,
		"confidence", d.Confidence,
		"margin", d.Margin,
		"entropy", d.Entropy,
		"threshold", d.Threshold,
		"accepted", d.Accepted,
	)
	return d, nil
}

func outcome(d Decision) string {
	switch {
	case d.Accepted:
		return metrics.OutcomeAccepted
	case d.Ambiguous:
		return metrics.OutcomeAmbiguous
	}
	return metrics.OutcomeRejected
}

func (e *engine) SetConfidenceThreshold(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, v)
	}
	e.mu.Lock()
	e.threshold = v
	e.mu.Unlock()

	e.logger.Info("confidence threshold set", "threshold", v)
	return nil
}

func (e *engine) SetDebug(enabled bool) {
	e.mu.Lock()
	e.debug = enabled
	e.mu.Unlock()

	e.logger.Info("debug mode set", "enabled", enabled)
}

func (e *engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Status{
		State:     e.state,
		Threshold: e.threshold,
		Debug:     e.debug,
	}
	if e.entry != nil {
		id := e.entry.ID
		s.ModelID = &id
		s.ModelName = e.entry.Name
		s.Labels = slices.Clone(e.entry.Labels)
		s.FeatureWidth = e.net.Input
	}
	return s
}
