// Package trainer fits a classifier to the current samples and stores the
// result in the model catalog.
package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/mimic/internal/catalog"
	"github.com/JaimeStill/mimic/internal/labels"
	"github.com/JaimeStill/mimic/internal/metrics"
	"github.com/JaimeStill/mimic/internal/runs"
	"github.com/JaimeStill/mimic/internal/samples"
	"github.com/JaimeStill/mimic/pkg/nn"
)

// System defines the training contract.
type System interface {
	// Train fits a new model named name. It never overwrites: an existing
	// name fails with catalog.ErrDuplicateName. Training stops early only
	// when ctx is cancelled.
	Train(ctx context.Context, set []samples.Sample, name string) (*Result, error)
}

// Result describes a stored model and the run that produced it.
type Result struct {
	Entry   catalog.Entry   `json:"entry"`
	Evicted []catalog.Entry `json:"evicted,omitempty"`
	Run     runs.Run        `json:"run"`
}

type trainer struct {
	catalog catalog.System
	history runs.System
	cfg     Config
	logger  *slog.Logger
}

// New creates a trainer that stores models in cat and records every
// attempt in history.
func New(cat catalog.System, history runs.System, cfg Config, logger *slog.Logger) System {
	return &trainer{
		catalog: cat,
		history: history,
		cfg:     cfg,
		logger:  logger.With("system", "trainer"),
	}
}

func (t *trainer) Train(ctx context.Context, set []samples.Sample, name string) (*Result, error) {
	if len(set) == 0 {
		return nil, ErrEmptyDataset
	}
	if _, err := t.catalog.FindByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %s", catalog.ErrDuplicateName, name)
	}

	started := time.Now()
	run := runs.Run{
		ID:          uuid.New(),
		ModelName:   name,
		SampleCount: len(set),
		StartedAt:   started.UTC(),
	}

	result, err := t.train(ctx, set, name, &run)

	run.CompletedAt = time.Now().UTC()
	run.DurationMs = time.Since(started).Milliseconds()
	if err != nil {
		run.Status = runs.StatusFailed
		run.Error = err.Error()
	} else {
		run.Status = runs.StatusSucceeded
		run.ModelID = &result.Entry.ID
		result.Run = run
	}

	metrics.RecordTraining(time.Since(started), err)
	if recErr := t.history.Record(context.WithoutCancel(ctx), run); recErr != nil {
		t.logger.Warn("training run not recorded", "run", run.ID, "error", recErr)
	}

	if err != nil {
		t.logger.Error("training failed", "name", name, "samples", len(set), "error", err)
		return nil, err
	}

	t.logger.Info(
		"training complete",
		"name", name,
		"id", result.Entry.ID,
		"labels", run.LabelCount,
		"loss", run.Loss,
		"accuracy", run.Accuracy,
		"duration_ms", run.DurationMs,
	)
	return result, nil
}

func (t *trainer) train(ctx context.Context, set []samples.Sample, name string, run *runs.Run) (*Result, error) {
	width := len(set[0].Features)
	names := make([]string, len(set))
	counts := make(map[string]int)
	for i, s := range set {
		if len(s.Features) != width {
			return nil, fmt.Errorf("%w: sample %d has %d features, want %d", ErrTrainingFailed, i, len(s.Features), width)
		}
		names[i] = s.Label
		counts[s.Label]++
	}

	codec := labels.Derive(names...)
	k := codec.Len()
	run.LabelCount = k

	x := make([][]float64, len(set))
	y := make([][]float64, len(set))
	for i, s := range set {
		x[i] = s.Features
		if k == 1 {
			y[i] = []float64{1}
			continue
		}
		y[i], _ = codec.OneHot(s.Label)
	}

	out, head := k, nn.Softmax
	if k == 1 {
		out, head = 1, nn.Sigmoid
	}

	rng := t.rand()
	net, err := nn.New(width, t.cfg.HiddenLayers(width), out, head, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFailed, err)
	}

	history, err := net.Fit(x, y, nn.TrainConfig{
		Epochs:          t.cfg.Epochs,
		BatchSize:       t.cfg.BatchSize,
		ValidationSplit: t.cfg.ValidationSplit,
		LearningRate:    t.cfg.LearningRate,
		Rand:            rng,
		OnEpoch: func(s nn.EpochStats) error {
			if t.cfg.LogEvery > 0 && s.Epoch%t.cfg.LogEvery == 0 {
				t.logger.Debug("epoch", "name", name, "epoch", s.Epoch, "loss", s.Loss, "accuracy", s.Accuracy)
			}
			return ctx.Err()
		},
	})
	final := history.Final()
	run.Epochs = len(history.Epochs)
	run.Loss, run.Accuracy = final.Loss, final.Accuracy
	if final.HasValidation {
		run.ValLoss, run.ValAccuracy = &final.ValLoss, &final.ValAccuracy
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingFailed, err)
	}

	artifact, err := net.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: serialize: %v", ErrTrainingFailed, err)
	}

	id := uuid.New()
	created := time.Now().UTC()
	entry := catalog.Entry{
		ID:           id,
		Name:         name,
		StorageKey:   catalog.BuildStorageKey(id, created),
		SampleCount:  len(set),
		FeatureWidth: width,
		Labels:       codec.Labels(),
		LabelMap:     codec.Map(),
		LabelCounts:  counts,
		CreatedAt:    created,
	}

	stored, err := t.catalog.Put(ctx, entry, artifact)
	if err != nil {
		return nil, err
	}

	return &Result{Entry: stored.Entry, Evicted: stored.Evicted}, nil
}

func (t *trainer) rand() *rand.Rand {
	if t.cfg.Seed != 0 {
		return rand.New(rand.NewPCG(t.cfg.Seed, t.cfg.Seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
