package studio

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/mimic/internal/catalog"
	"github.com/JaimeStill/mimic/internal/features"
	"github.com/JaimeStill/mimic/internal/inference"
	"github.com/JaimeStill/mimic/internal/runs"
	"github.com/JaimeStill/mimic/internal/samples"
	"github.com/JaimeStill/mimic/internal/trainer"
	"github.com/JaimeStill/mimic/pkg/storage"
)

// Domain errors for studio operations.
var (
	ErrInvalidName        = errors.New("model name must not be empty")
	ErrTrainingInProgress = errors.New("a training run is already in progress")
	ErrInvalidRequest     = errors.New("invalid request")
)

var domainStatus = []func(error) int{
	catalog.MapHTTPStatus,
	samples.MapHTTPStatus,
	trainer.MapHTTPStatus,
	inference.MapHTTPStatus,
	runs.MapHTTPStatus,
}

// MapHTTPStatus maps errors from any studio collaborator to an HTTP status.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, features.ErrNoFeatures):
		return http.StatusBadRequest
	case errors.Is(err, ErrTrainingInProgress):
		return http.StatusConflict
	case errors.Is(err, storage.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	}

	for _, status := range domainStatus {
		if code := status(err); code != http.StatusInternalServerError {
			return code
		}
	}
	return http.StatusInternalServerError
}
