package hooks

import (
	"errors"
	"fmt"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/factory"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// ErrActionConflict is returned when a hook invocation calls a second
// terminal action. Each invocation may merge or replace at most once.
var ErrActionConflict = errors.New("bundler config already set by this hook invocation")

// UsageError reports a hook misusing the action API: issuing a second
// terminal action within a single invocation. It names the offending hook
// and stage and unwraps to ErrActionConflict.
type UsageError struct {
	Hook   string
	Stage  stage.Stage
	Action string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s action rejected: %v", e.Action, ErrActionConflict)
}

func (e *UsageError) Unwrap() error { return ErrActionConflict }

// Context is the argument bundle a hook receives for one stage invocation.
// It exposes the stage, read access to the configuration assembled so far,
// the loader and plugin factories, and the two terminal actions. A Context
// is only valid for the duration of the invocation it was created for.
type Context struct {
	hook    string
	stage   stage.Stage
	work    *bundler.Config
	loaders *factory.Loaders
	plugins *factory.Plugins

	acted     bool
	violation error
}

// Stage returns the compilation stage being configured.
func (hc *Context) Stage() stage.Stage { return hc.stage }

// Config returns a snapshot of the configuration assembled so far, including
// the effects of actions taken earlier in this dispatch. Mutating the
// snapshot has no effect; use SetBundlerConfig or ReplaceBundlerConfig.
func (hc *Context) Config() bundler.Config { return hc.work.Clone() }

// Rules returns a snapshot of the module rules assembled so far.
func (hc *Context) Rules() []bundler.Rule { return hc.Config().Module.Rules }

// Loaders returns the loader factories bound to this invocation's stage.
func (hc *Context) Loaders() Loaders { return Loaders{st: hc.stage, reg: hc.loaders} }

// Plugins returns the plugin factories bound to this invocation's stage.
func (hc *Context) Plugins() Plugins { return Plugins{st: hc.stage, reg: hc.plugins} }

// SetBundlerConfig merges fragment into the working configuration. Lists
// concatenate in order without deduplication, maps merge key-wise, and
// defined scalars override. Subsequent hooks observe the merged result.
//
// At most one terminal action is allowed per invocation; a second call
// fails with ErrActionConflict and aborts the stage.
func (hc *Context) SetBundlerConfig(fragment bundler.Config) error {
	if err := hc.begin("merge"); err != nil {
		return err
	}
	*hc.work = bundler.Merge(*hc.work, fragment)
	return nil
}

// ReplaceBundlerConfig discards the working configuration and adopts value
// wholesale. The candidate is validated first: if required top-level keys
// are missing the working configuration is left untouched and the stage
// fails with the returned *bundler.ValidationError.
//
// At most one terminal action is allowed per invocation; a second call
// fails with ErrActionConflict and aborts the stage.
func (hc *Context) ReplaceBundlerConfig(value bundler.Config) error {
	if err := hc.begin("replace"); err != nil {
		return err
	}
	if err := value.Validate(); err != nil {
		hc.violation = err
		return err
	}
	*hc.work = value.Clone()
	return nil
}

// begin records the first terminal action and rejects any later one. The
// violation sticks on the context so the dispatcher aborts the stage even
// when the hook swallows the returned error.
func (hc *Context) begin(action string) error {
	if hc.acted {
		err := &UsageError{Hook: hc.hook, Stage: hc.stage, Action: action}
		hc.violation = err
		return err
	}
	hc.acted = true
	return nil
}

// Loaders is the stage-bound view of the loader factory registry.
type Loaders struct {
	st  stage.Stage
	reg *factory.Loaders
}

// Get invokes the named loader factory for this invocation's stage.
// Unknown names return a *factory.NotFoundError.
func (l Loaders) Get(name string) (bundler.LoaderUse, error) {
	return l.reg.Build(name, l.st)
}

// Names returns all registered loader names sorted.
func (l Loaders) Names() []string { return l.reg.Names() }

// Plugins is the stage-bound view of the plugin factory registry.
type Plugins struct {
	st  stage.Stage
	reg *factory.Plugins
}

// Get invokes the named plugin factory for this invocation's stage.
// Unknown names return a *factory.NotFoundError.
func (p Plugins) Get(name string) (bundler.PluginRef, error) {
	return p.reg.Build(name, p.st)
}

// Names returns all registered plugin names sorted.
func (p Plugins) Names() []string { return p.reg.Names() }
