package samples

import (
	"errors"
	"net/http"
)

// Domain errors for sample operations.
var (
	ErrDimensionMismatch = errors.New("feature width does not match stored samples")
	ErrInvalidLabel      = errors.New("label must not be empty")
	ErrInvalidFeatures   = errors.New("features must be a non-empty vector of finite values")
	ErrIndexOutOfRange   = errors.New("sample index out of range")
	ErrPersistenceFailed = errors.New("sample persistence failed")
	ErrUnavailable       = errors.New("persisted samples could not be restored")
)

// MapHTTPStatus maps sample domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrIndexOutOfRange) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrInvalidLabel) ||
		errors.Is(err, ErrInvalidFeatures) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
