// Package runs keeps the history of training attempts, successful or not.
package runs

import (
	"context"

	"github.com/google/uuid"
)

// DefaultRetain bounds the number of runs kept in history.
const DefaultRetain = 200

// System defines the public contract for training run history.
type System interface {
	Record(ctx context.Context, run Run) error
	// List returns the newest runs first, at most limit (<= 0 means all).
	List(ctx context.Context, limit int) ([]Run, error)
	Find(ctx context.Context, id uuid.UUID) (*Run, error)
}
