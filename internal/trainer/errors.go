package trainer

import (
	"errors"
	"net/http"
)

// Domain errors for training.
var (
	ErrEmptyDataset   = errors.New("no samples to train on")
	ErrTrainingFailed = errors.New("training failed")
)

// MapHTTPStatus maps training errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrEmptyDataset) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrTrainingFailed) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
