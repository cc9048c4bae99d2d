package inference

import (
	"errors"
	"net/http"
)

// Domain errors for inference.
var (
	ErrModelNotFound      = errors.New("model not found")
	ErrArtifactLoadFailed = errors.New("model artifact could not be loaded")
	ErrNotReady           = errors.New("no model is ready")
	ErrDimensionMismatch  = errors.New("feature width does not match the model")
	ErrInferenceFailed    = errors.New("inference failed")
	ErrInvalidThreshold   = errors.New("confidence threshold must be between 0 and 1")
)

// MapHTTPStatus maps inference errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrModelNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, ErrDimensionMismatch), errors.Is(err, ErrInvalidThreshold):
		return http.StatusBadRequest
	case errors.Is(err, ErrArtifactLoadFailed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
