package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IndexKey is the metadata store key holding the catalog index.
const IndexKey = "catalog/index.json"

// DefaultRetain is the number of existing entries kept when the metadata
// quota forces eviction.
const DefaultRetain = 10

// Entry describes one trained model. Labels and LabelMap are the frozen
// codec the model was trained with. Entries are never mutated.
type Entry struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	StorageKey   string         `json:"storageKey"`
	SampleCount  int            `json:"sampleCount"`
	FeatureWidth int            `json:"featureWidth"`
	Labels       []string       `json:"labels"`
	LabelMap     map[string]int `json:"labelMap"`
	LabelCounts  map[string]int `json:"labelCounts"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// PutResult is the outcome of a successful Put. Evicted lists entries
// dropped to make room under the metadata quota.
type PutResult struct {
	Entry   Entry   `json:"entry"`
	Evicted []Entry `json:"evicted,omitempty"`
}

// BuildStorageKey returns a unique artifact key for a model created at t.
func BuildStorageKey(id uuid.UUID, t time.Time) string {
	return fmt.Sprintf("models/%d/%s", t.UnixNano(), id)
}
