// Package ratelog provides a slog handler that drops records beyond a fixed
// rate. It is meant for hot paths such as per-frame prediction logging,
// where every call would otherwise emit a line.
package ratelog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Handler forwards at most one record per interval (plus burst) to the
// wrapped handler. Dropped records are counted and reported on the next
// record that passes as a "suppressed" attribute.
type Handler struct {
	next    slog.Handler
	limiter *rate.Limiter
	dropped *atomic.Int64
}

// NewHandler wraps next. An interval <= 0 disables limiting.
func NewHandler(next slog.Handler, every time.Duration, burst int) *Handler {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	if burst < 1 {
		burst = 1
	}
	return &Handler{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		dropped: new(atomic.Int64),
	}
}

// New returns a logger that shares logger's handler behind a rate limit.
func New(logger *slog.Logger, every time.Duration, burst int) *slog.Logger {
	return slog.New(NewHandler(logger.Handler(), every, burst))
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if !h.limiter.Allow() {
		h.dropped.Add(1)
		return nil
	}
	if n := h.dropped.Swap(0); n > 0 {
		r = r.Clone()
		r.AddAttrs(slog.Int64("suppressed", n))
	}
	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs), limiter: h.limiter, dropped: h.dropped}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name), limiter: h.limiter, dropped: h.dropped}
}
