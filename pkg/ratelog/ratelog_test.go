package ratelog_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/mimic/pkg/ratelog"
)

func TestHandlerLimits(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	logger := ratelog.New(base, time.Hour, 1)

	for range 5 {
		logger.Info("frame")
	}

	if got := strings.Count(buf.String(), "msg=frame"); got != 1 {
		t.Errorf("logged %d records, want 1", got)
	}
}

func TestHandlerUnlimited(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	logger := ratelog.New(base, 0, 1).With("system", "inference")

	for range 3 {
		logger.Info("frame")
	}

	out := buf.String()
	if got := strings.Count(out, "msg=frame"); got != 3 {
		t.Errorf("logged %d records, want 3", got)
	}
	if !strings.Contains(out, "system=inference") {
		t.Error("expected attrs to carry through WithAttrs")
	}
}
