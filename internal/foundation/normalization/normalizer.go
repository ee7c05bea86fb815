// Package normalization maps free-form configuration strings onto typed
// enum values. Lookups are case-insensitive and whitespace-tolerant so
// hand-edited YAML stays forgiving.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer resolves raw strings to values of a closed enum type T.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
	keys     []string
}

// New builds a Normalizer from canonical key/value pairs. Keys are
// canonicalized with the same rules lookups use. Normalize returns
// fallback for unknown input.
func New[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	canonical := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		ck := canonicalize(k)
		canonical[ck] = v
		keys = append(keys, ck)
	}
	sort.Strings(keys)

	return &Normalizer[T]{values: canonical, fallback: fallback, keys: keys}
}

// Normalize resolves raw to its enum value, falling back for input it
// does not recognize.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[canonicalize(raw)]; ok {
		return v
	}
	return n.fallback
}

// Parse resolves raw to its enum value and reports unknown input as an
// error naming the accepted keys.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.values[canonicalize(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

// Keys returns the accepted canonical keys in sorted order.
func (n *Normalizer[T]) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

func canonicalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
