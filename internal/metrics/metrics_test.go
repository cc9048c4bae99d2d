package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/mimic/internal/metrics"
	"github.com/JaimeStill/mimic/pkg/storage"
)

func TestRecordTraining(t *testing.T) {
	ok := metrics.TrainingRunsTotal.WithLabelValues("succeeded")
	failed := metrics.TrainingRunsTotal.WithLabelValues("failed")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	metrics.RecordTraining(time.Second, nil)
	metrics.RecordTraining(time.Second, errors.New("diverged"))

	if got := testutil.ToFloat64(ok) - okBefore; got != 1 {
		t.Errorf("succeeded delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(failed) - failedBefore; got != 1 {
		t.Errorf("failed delta = %v, want 1", got)
	}
}

func TestRecordQuota(t *testing.T) {
	samples := metrics.QuotaExceededTotal.WithLabelValues("samples")
	before := testutil.ToFloat64(samples)

	metrics.RecordQuota(&storage.QuotaExceededError{Store: "samples", Err: storage.ErrQuotaExceeded})
	metrics.RecordQuota(errors.New("unrelated"))
	metrics.RecordQuota(nil)

	if got := testutil.ToFloat64(samples) - before; got != 1 {
		t.Errorf("samples delta = %v, want 1", got)
	}
}

func TestRecordPrediction(t *testing.T) {
	accepted := metrics.PredictionsTotal.WithLabelValues(metrics.OutcomeAccepted)
	before := testutil.ToFloat64(accepted)

	metrics.RecordPrediction(metrics.OutcomeAccepted, time.Millisecond)

	if got := testutil.ToFloat64(accepted) - before; got != 1 {
		t.Errorf("accepted delta = %v, want 1", got)
	}
}
