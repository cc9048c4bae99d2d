// Package labels maps class labels to dense output indices. A Codec is
// derived from the training samples, frozen into the catalog entry, and
// never rebuilt at inference time.
package labels

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInconsistent indicates a stored label mapping that is not a dense,
// sorted bijection.
var ErrInconsistent = errors.New("inconsistent label mapping")

// Codec is a deterministic label↔index mapping.
type Codec struct {
	labels []string
	index  map[string]int
}

// Derive sorts the distinct labels lexicographically and assigns 0..K-1.
// Input order and duplicates do not affect the result.
func Derive(labels ...string) Codec {
	sorted := slices.Clone(labels)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	index := make(map[string]int, len(sorted))
	for i, l := range sorted {
		index[l] = i
	}
	return Codec{labels: sorted, index: index}
}

// FromEntry rebuilds a codec from a stored label list and map, verifying
// that they agree.
func FromEntry(labels []string, labelMap map[string]int) (Codec, error) {
	if len(labels) == 0 {
		return Codec{}, fmt.Errorf("%w: no labels", ErrInconsistent)
	}
	if len(labelMap) != len(labels) {
		return Codec{}, fmt.Errorf("%w: %d labels, %d map entries", ErrInconsistent, len(labels), len(labelMap))
	}
	if !slices.IsSorted(labels) {
		return Codec{}, fmt.Errorf("%w: labels not sorted", ErrInconsistent)
	}
	for i, l := range labels {
		idx, ok := labelMap[l]
		if !ok || idx != i {
			return Codec{}, fmt.Errorf("%w: %q maps to %d, want %d", ErrInconsistent, l, idx, i)
		}
	}

	c := Derive(labels...)
	if c.Len() != len(labels) {
		return Codec{}, fmt.Errorf("%w: duplicate labels", ErrInconsistent)
	}
	return c, nil
}

// Len returns the number of classes.
func (c Codec) Len() int {
	return len(c.labels)
}

// Labels returns the sorted labels.
func (c Codec) Labels() []string {
	return slices.Clone(c.labels)
}

// Map returns a copy of the label→index mapping.
func (c Codec) Map() map[string]int {
	m := make(map[string]int, len(c.index))
	for k, v := range c.index {
		m[k] = v
	}
	return m
}

// Index returns the index of label.
func (c Codec) Index(label string) (int, bool) {
	i, ok := c.index[label]
	return i, ok
}

// Label returns the label at index i.
func (c Codec) Label(i int) (string, bool) {
	if i < 0 || i >= len(c.labels) {
		return "", false
	}
	return c.labels[i], true
}

// OneHot returns a K-wide target vector with label's index set.
func (c Codec) OneHot(label string) ([]float64, bool) {
	i, ok := c.index[label]
	if !ok {
		return nil, false
	}
	v := make([]float64, len(c.labels))
	v[i] = 1
	return v, true
}
