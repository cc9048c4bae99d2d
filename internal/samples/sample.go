package samples

import (
	"time"
)

// StorageKey is the metadata store key holding the persisted sample set.
const StorageKey = "samples/session.json"

// Sample is one labeled feature vector.
type Sample struct {
	Features  []float64 `json:"features"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
}

// Mutation reports whether a change reached the metadata store. The
// in-memory change always stands; Err and Warning describe a failed
// persistence attempt.
type Mutation struct {
	Persisted bool   `json:"persisted"`
	Warning   string `json:"warning,omitempty"`
	Err       error  `json:"-"`
}

type snapshot struct {
	Samples   []Sample  `json:"samples"`
	Timestamp time.Time `json:"timestamp"`
}
