package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/mimic/pkg/lifecycle"
)

// System defines the public contract for the model catalog. Entry metadata
// lives in the quota-bounded metadata store; artifacts live in the
// artifact store under each entry's StorageKey.
type System interface {
	// Start restores the catalog index during startup.
	Start(lc *lifecycle.Coordinator)
	Ready() bool

	// List returns entries in insertion order.
	List(ctx context.Context) ([]Entry, error)
	Find(ctx context.Context, id uuid.UUID) (*Entry, error)
	// FindByName matches case-insensitively.
	FindByName(ctx context.Context, name string) (*Entry, error)

	// Put stores the artifact and appends the entry. On a metadata quota
	// failure older entries are evicted and the write retried once.
	Put(ctx context.Context, entry Entry, artifact []byte) (*PutResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Artifact(ctx context.Context, key string) ([]byte, error)
}
