package studio

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/JaimeStill/mimic/internal/features"
	"github.com/JaimeStill/mimic/internal/inference"
	"github.com/JaimeStill/mimic/pkg/handlers"
	"github.com/JaimeStill/mimic/pkg/middleware"
	"github.com/JaimeStill/mimic/pkg/routes"
)

// Handler provides HTTP endpoints for studio operations.
type Handler struct {
	sys      System
	logger   *slog.Logger
	cors     *middleware.CORSConfig
	upgrader websocket.Upgrader
}

// SampleRequest adds one labeled sample from raw features or landmarks.
type SampleRequest struct {
	features.Input
	Label string `json:"label"`
}

// TrainRequest names the model to train.
type TrainRequest struct {
	Name      string `json:"name"`
	Overwrite bool   `json:"overwrite"`
}

// ThresholdRequest sets the engine's confidence threshold.
type ThresholdRequest struct {
	Threshold *float64 `json:"threshold"`
}

// DebugRequest toggles debug labelling.
type DebugRequest struct {
	Enabled *bool `json:"enabled"`
}

// PredictRequest classifies one frame, optionally cross-checked against
// an auxiliary signal.
type PredictRequest struct {
	features.Input
	Signal *inference.Signal `json:"signal,omitempty"`
}

// NewHandler creates a Handler. cors governs which browser origins may
// open the prediction stream; nil admits same-host origins only.
func NewHandler(sys System, logger *slog.Logger, cors *middleware.CORSConfig) *Handler {
	h := &Handler{
		sys:    sys,
		logger: logger.With("handler", "studio"),
		cors:   cors,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		HandshakeTimeout: handshakeTimeout,
		CheckOrigin:      h.checkOrigin,
	}
	return h
}

// Routes returns the route group definition for studio endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/samples",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.ListSamples},
					{Method: "POST", Pattern: "", Handler: h.AddSample},
					{Method: "DELETE", Pattern: "", Handler: h.ClearSamples},
					{Method: "GET", Pattern: "/counts", Handler: h.SampleCounts},
					{Method: "DELETE", Pattern: "/{index}", Handler: h.RemoveSample},
				},
			},
			{
				Prefix: "/models",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.ListModels},
					{Method: "POST", Pattern: "", Handler: h.Train},
					{Method: "GET", Pattern: "/{id}", Handler: h.FindModel},
					{Method: "DELETE", Pattern: "/{id}", Handler: h.DeleteModel},
					{Method: "POST", Pattern: "/{id}/select", Handler: h.SelectModel},
				},
			},
			{
				Prefix: "/engine",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.Status},
					{Method: "PUT", Pattern: "/threshold", Handler: h.SetThreshold},
					{Method: "PUT", Pattern: "/debug", Handler: h.SetDebug},
				},
			},
			{
				Prefix: "/predict",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.Predict},
					{Method: "GET", Pattern: "/stream", Handler: h.Stream},
				},
			},
			{
				Prefix: "/runs",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.ListRuns},
				},
			},
		},
	}
}

// ListSamples returns every stored sample in insertion order.
func (h *Handler) ListSamples(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Samples(r.Context()))
}

// AddSample stores a labeled sample. Persistence failures are reported in
// the body; the sample itself is kept.
func (h *Handler) AddSample(w http.ResponseWriter, r *http.Request) {
	var req SampleRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.sys.AddSample(r.Context(), req.Input, req.Label)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// ClearSamples removes all samples.
func (h *Handler) ClearSamples(w http.ResponseWriter, r *http.Request) {
	m, err := h.sys.ClearSamples(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, m)
}

// SampleCounts returns the number of samples per label.
func (h *Handler) SampleCounts(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.SampleCounts(r.Context()))
}

// RemoveSample removes the sample at the index path parameter.
func (h *Handler) RemoveSample(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: index", ErrInvalidRequest))
		return
	}

	m, err := h.sys.RemoveSample(r.Context(), index)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, m)
}

// ListModels returns the catalog in insertion order.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.sys.ListModels(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, models)
}

// Train fits a model on the current samples. The request blocks until the
// run completes.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.sys.Train(r.Context(), req.Name, req.Overwrite)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// FindModel returns a single catalog entry by its UUID path parameter.
func (h *Handler) FindModel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	entry, err := h.sys.FindModel(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, entry)
}

// DeleteModel removes a model and its artifact.
func (h *Handler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.sys.DeleteModel(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SelectModel loads a model into the inference engine.
func (h *Handler) SelectModel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	entry, err := h.sys.SelectModel(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, entry)
}

// Status returns the engine and sample summary.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Status(r.Context()))
}

// SetThreshold updates the confidence threshold.
func (h *Handler) SetThreshold(w http.ResponseWriter, r *http.Request) {
	var req ThresholdRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Threshold == nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: threshold is required", ErrInvalidRequest))
		return
	}

	if err := h.sys.SetConfidenceThreshold(*req.Threshold); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.sys.Status(r.Context()).Engine)
}

// SetDebug toggles debug labelling.
func (h *Handler) SetDebug(w http.ResponseWriter, r *http.Request) {
	var req DebugRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: enabled is required", ErrInvalidRequest))
		return
	}

	h.sys.SetDebugMode(*req.Enabled)
	handlers.RespondJSON(w, http.StatusOK, h.sys.Status(r.Context()).Engine)
}

// Predict classifies a single frame.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.sys.Predict(r.Context(), req.Input, req.Signal)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// ListRuns returns recent training runs, newest first. The optional limit
// query parameter bounds the result.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: limit", ErrInvalidRequest))
			return
		}
		limit = n
	}

	list, err := h.sys.Runs(r.Context(), limit)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return false
	}
	return true
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: id", ErrInvalidRequest))
		return uuid.Nil, false
	}
	return id, true
}
