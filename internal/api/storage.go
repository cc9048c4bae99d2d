package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/mimic/pkg/formatting"
	"github.com/JaimeStill/mimic/pkg/handlers"
	"github.com/JaimeStill/mimic/pkg/routes"
	"github.com/JaimeStill/mimic/pkg/storage"
)

// StoreUsage reports the bytes attributed to one logical store. Limit is
// zero when the store has no quota.
type StoreUsage struct {
	Store     string `json:"store"`
	Used      int64  `json:"used"`
	Limit     int64  `json:"limit"`
	Formatted string `json:"formatted"`
}

type metered interface {
	Used() int64
	Limit() int64
}

type storageHandler struct {
	stores map[string]storage.System
	order  []string
	logger *slog.Logger
}

func newStorageHandler(
	artifacts storage.System,
	metadata storage.System,
	logger *slog.Logger,
) *storageHandler {
	return &storageHandler{
		stores: map[string]storage.System{
			"artifacts": artifacts,
			"metadata":  metadata,
		},
		order:  []string{"artifacts", "metadata"},
		logger: logger.With("handler", "storage"),
	}
}

func (h *storageHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/storage",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.usage},
		},
	}
}

func (h *storageHandler) usage(w http.ResponseWriter, r *http.Request) {
	result := make([]StoreUsage, 0, len(h.order))
	for _, name := range h.order {
		result = append(result, h.report(name))
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *storageHandler) report(name string) StoreUsage {
	u := StoreUsage{Store: name}
	m, ok := h.stores[name].(metered)
	if !ok {
		u.Formatted = "unmetered"
		return u
	}
	u.Used, u.Limit = m.Used(), m.Limit()
	u.Formatted = formatting.FormatBytes(u.Used, 1) + " / " + formatting.FormatBytes(u.Limit, 1)
	return u
}
