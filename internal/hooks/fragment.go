package hooks

import (
	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
)

// FragmentHook merges a fixed configuration fragment, typically the
// `bundler:` section of sitebuilder.yaml. It is registered last so
// project-file overrides win over preset hooks.
type FragmentHook struct {
	name     string
	fragment bundler.Config
}

// NewFragmentHook wraps fragment as a hook under the given name.
func NewFragmentHook(name string, fragment bundler.Config) *FragmentHook {
	return &FragmentHook{name: name, fragment: fragment}
}

func (f *FragmentHook) Name() string { return f.name }

// ConfigureBundler merges the fragment into every stage's configuration.
func (f *FragmentHook) ConfigureBundler(hc *Context) error {
	return hc.SetBundlerConfig(f.fragment)
}
