package storage

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the storage key contains a path traversal segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
	// ErrQuotaExceeded indicates a write would push the store past its byte quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// QuotaExceededError attributes a quota failure to the logical store that hit it
// (for example "samples" or "catalog"). It unwraps to the underlying error,
// so errors.Is(err, ErrQuotaExceeded) holds.
type QuotaExceededError struct {
	Store string
	Err   error
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: %v", e.Store, e.Err)
}

func (e *QuotaExceededError) Unwrap() error {
	return e.Err
}

// AsQuotaExceeded wraps err in a QuotaExceededError for store when err is a
// quota failure. Other errors are returned unchanged.
func AsQuotaExceeded(store string, err error) error {
	if err == nil || !errors.Is(err, ErrQuotaExceeded) {
		return err
	}
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return err
	}
	return &QuotaExceededError{Store: store, Err: err}
}

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrEmptyKey) || errors.Is(err, ErrInvalidKey) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return http.StatusInsufficientStorage
	}
	return http.StatusInternalServerError
}
