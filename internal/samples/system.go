package samples

import (
	"context"

	"github.com/JaimeStill/mimic/pkg/lifecycle"
)

// System defines the public contract for the training sample store.
// Mutations fail with a domain error on precondition violations or when
// the persisted set cannot be restored (ErrUnavailable); write failures
// are reported through the returned Mutation.
type System interface {
	// Start restores the persisted sample set during startup.
	Start(lc *lifecycle.Coordinator)
	Ready() bool

	Add(ctx context.Context, features []float64, label string) (Mutation, error)
	Remove(ctx context.Context, index int) (Mutation, error)
	Clear(ctx context.Context) (Mutation, error)

	List(ctx context.Context) []Sample
	Counts(ctx context.Context) map[string]int
	Width(ctx context.Context) int
	Len(ctx context.Context) int
}
