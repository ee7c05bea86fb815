package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/factory"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// DispatchError reports a hook failure during stage configuration assembly.
// Any hook failure is fatal to the stage being assembled.
type DispatchError struct {
	Hook  string
	Stage stage.Stage
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("hook %q failed for stage %s: %v", e.Hook, e.Stage, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Dispatcher holds the registered hooks and invokes them per stage.
// Registration is concurrency-safe; a dispatch itself is strictly
// sequential, hooks never run concurrently with each other.
type Dispatcher struct {
	mu      sync.RWMutex
	hooks   []Hook
	names   map[string]struct{}
	loaders *factory.Loaders
	plugins *factory.Plugins
}

// NewDispatcher creates a dispatcher drawing descriptors from the given
// factory registries. Nil registries fall back to the built-in defaults.
func NewDispatcher(loaders *factory.Loaders, plugins *factory.Plugins) *Dispatcher {
	if loaders == nil {
		loaders = factory.NewDefaultLoaders()
	}
	if plugins == nil {
		plugins = factory.NewDefaultPlugins()
	}
	return &Dispatcher{
		names:   make(map[string]struct{}),
		loaders: loaders,
		plugins: plugins,
	}
}

// Register adds a hook to the dispatch order.
// Returns an error if the hook is nil, unnamed, or its name is already taken.
func (d *Dispatcher) Register(h Hook) error {
	if h == nil {
		return fmt.Errorf("cannot register nil hook")
	}
	name := h.Name()
	if name == "" {
		return fmt.Errorf("cannot register hook with empty name")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.names[name]; exists {
		return fmt.Errorf("hook %q already registered", name)
	}

	d.names[name] = struct{}{}
	d.hooks = append(d.hooks, h)
	return nil
}

// RegisterFunc wraps fn as a named hook and registers it.
func (d *Dispatcher) RegisterFunc(name string, fn func(hc *Context) error) error {
	return d.Register(Func(name, fn))
}

// Names returns the registered hook names in dispatch order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]string, len(d.hooks))
	for i, h := range d.hooks {
		result[i] = h.Name()
	}
	return result
}

// Len returns the number of registered hooks.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.hooks)
}

// LoaderFactories returns the loader registry hooks resolve descriptors from.
func (d *Dispatcher) LoaderFactories() *factory.Loaders { return d.loaders }

// PluginFactories returns the plugin registry hooks resolve descriptors from.
func (d *Dispatcher) PluginFactories() *factory.Plugins { return d.plugins }

// Dispatch assembles the configuration for one stage: every registered hook
// is invoked exactly once, in registration order, against a working copy
// seeded from base. Neither base nor the inputs of any merge survive into
// the result by reference.
//
// The first failure aborts the dispatch: a hook returning an error, an
// action violation (second terminal action or invalid replace), or context
// cancellation between hooks. Remaining hooks are not invoked.
func (d *Dispatcher) Dispatch(ctx context.Context, st stage.Stage, base bundler.Config) (bundler.Config, error) {
	d.mu.RLock()
	hooks := make([]Hook, len(d.hooks))
	copy(hooks, d.hooks)
	d.mu.RUnlock()

	work := base.Clone()

	for _, h := range hooks {
		select {
		case <-ctx.Done():
			return bundler.Config{}, &DispatchError{Hook: h.Name(), Stage: st, Err: ctx.Err()}
		default:
		}

		slog.Debug("Applying bundler config hook", "hook", h.Name(), "stage", st.String())

		hc := &Context{
			hook:    h.Name(),
			stage:   st,
			work:    &work,
			loaders: d.loaders,
			plugins: d.plugins,
		}

		err := h.ConfigureBundler(hc)
		// An action violation aborts the stage even when the hook
		// discards the returned error.
		if hc.violation != nil {
			return bundler.Config{}, &DispatchError{Hook: h.Name(), Stage: st, Err: hc.violation}
		}
		if err != nil {
			return bundler.Config{}, &DispatchError{Hook: h.Name(), Stage: st, Err: err}
		}
	}

	return work, nil
}
