// Package factory provides the named loader and plugin factories hook
// callbacks draw descriptors from. Factories are stage-aware: invoking the
// same factory for different stages yields descriptors tuned to that stage
// (development variants inline, production variants extract and minify).
//
// Lookups never fall back to a default: asking for an unregistered name
// returns a *NotFoundError naming the request and the known set.
package factory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// NotFoundError reports a lookup of a factory name nothing was registered
// under. It carries the known names so the caller can surface them.
type NotFoundError struct {
	Kind  string // "loader" or "plugin"
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown %s %q (none registered)", e.Kind, e.Name)
	}
	return fmt.Sprintf("unknown %s %q (registered: %s)", e.Kind, e.Name, strings.Join(e.Known, ", "))
}

// registry is a concurrency-safe name -> factory map shared by the loader
// and plugin registries.
type registry[F any] struct {
	mu        sync.RWMutex
	kind      string
	factories map[string]F
}

func newRegistry[F any](kind string) *registry[F] {
	return &registry[F]{
		kind:      kind,
		factories: make(map[string]F),
	}
}

// register adds a factory under name.
// Returns an error if the name is empty or already taken.
func (r *registry[F]) register(name string, factory F) error {
	if name == "" {
		return fmt.Errorf("cannot register %s factory with empty name", r.kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%s factory %q already registered", r.kind, name)
	}

	r.factories[name] = factory
	return nil
}

// get retrieves the factory registered under name.
func (r *registry[F]) get(name string) (F, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		var zero F
		return zero, &NotFoundError{Kind: r.kind, Name: name, Known: r.namesLocked()}
	}
	return factory, nil
}

// has checks if a factory with the given name exists.
func (r *registry[F]) has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[name]
	return ok
}

// names returns all registered factory names sorted.
func (r *registry[F]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *registry[F]) namesLocked() []string {
	result := make([]string, 0, len(r.factories))
	for name := range r.factories {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
