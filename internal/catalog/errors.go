package catalog

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/mimic/pkg/storage"
)

// Domain errors for catalog operations.
var (
	ErrNotFound          = errors.New("model not found")
	ErrDuplicateName     = errors.New("model name already exists")
	ErrInvalidEntry      = errors.New("invalid catalog entry")
	ErrArtifactNotFound  = errors.New("model artifact not found")
	ErrPersistenceFailed = errors.New("catalog persistence failed")
)

// MapHTTPStatus maps catalog domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrArtifactNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicateName) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidEntry) {
		return http.StatusBadRequest
	}
	if errors.Is(err, storage.ErrQuotaExceeded) {
		return http.StatusInsufficientStorage
	}
	return http.StatusInternalServerError
}
