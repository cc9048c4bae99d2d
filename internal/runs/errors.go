package runs

import (
	"errors"
	"net/http"
)

// Domain errors for training run history.
var (
	ErrNotFound  = errors.New("training run not found")
	ErrDuplicate = errors.New("training run already recorded")
)

// MapHTTPStatus maps run history errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
