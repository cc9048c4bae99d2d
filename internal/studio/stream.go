package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JaimeStill/mimic/internal/inference"
)

const (
	maxBodyBytes     = 1 << 20
	maxFrameBytes    = 64 << 10
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
	idleTimeout      = 2 * time.Minute
)

// StreamResult is written once per received frame. Exactly one of
// Decision and Error is set.
type StreamResult struct {
	Decision *inference.Decision `json:"decision,omitempty"`
	Error    string              `json:"error,omitempty"`
	Status   int                 `json:"status,omitempty"`
}

// Stream upgrades to a websocket and answers each PredictRequest frame
// with a StreamResult. Frames are handled one at a time; a client that
// sends faster than it reads simply waits.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxFrameBytes)
	h.logger.Info("stream opened", "addr", r.RemoteAddr)

	ctx := r.Context()
	frames := 0
	for {
		conn.SetReadDeadline(time.Now().Add(idleTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.logger.Warn("stream read failed", "addr", r.RemoteAddr, "error", err)
			}
			break
		}
		frames++

		result := h.frame(ctx, data)

		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(result); err != nil {
			h.logger.Warn("stream write failed", "addr", r.RemoteAddr, "error", err)
			break
		}
	}

	h.logger.Info("stream closed", "addr", r.RemoteAddr, "frames", frames)
}

func (h *Handler) frame(ctx context.Context, data []byte) StreamResult {
	var req PredictRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return StreamResult{
			Error:  fmt.Errorf("%w: %v", ErrInvalidRequest, err).Error(),
			Status: http.StatusBadRequest,
		}
	}

	d, err := h.sys.Predict(ctx, req.Input, req.Signal)
	if err != nil {
		return StreamResult{Error: err.Error(), Status: MapHTTPStatus(err)}
	}
	return StreamResult{Decision: &d}
}

// checkOrigin admits requests without an Origin header (non-browser
// clients), origins allowed by the CORS policy, and same-host origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.cors != nil && h.cors.AllowsOrigin(origin) {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}

	h.logger.Warn("stream origin rejected", "origin", origin)
	return false
}
