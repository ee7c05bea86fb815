// Package hooks implements the bundler configuration lifecycle: named hook
// callbacks registered once and invoked once per compilation stage, each
// receiving the stage, the configuration assembled so far, the loader and
// plugin factories, and the merge/replace actions.
package hooks

// Hook customizes the bundler configuration of a compilation stage.
// ConfigureBundler is called once per stage in registration order; returning
// an error aborts that stage's configuration assembly.
type Hook interface {
	Name() string
	ConfigureBundler(hc *Context) error
}

// hookFunc adapts a plain function to the Hook interface.
type hookFunc struct {
	name string
	fn   func(hc *Context) error
}

func (h hookFunc) Name() string { return h.name }

func (h hookFunc) ConfigureBundler(hc *Context) error { return h.fn(hc) }

// Func wraps fn as a named Hook.
func Func(name string, fn func(hc *Context) error) Hook {
	return hookFunc{name: name, fn: fn}
}
