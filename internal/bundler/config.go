// Package bundler defines the typed bundler configuration model: the value
// hook callbacks read and mutate, the compile passes consume, and the emit
// phase serializes per stage.
package bundler

import (
	"maps"
	"strings"
)

// Mode selects the optimization posture of a compilation.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// NormalizeMode canonicalizes user input returning empty string if unknown.
func NormalizeMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ModeDevelopment):
		return ModeDevelopment
	case string(ModeProduction):
		return ModeProduction
	default:
		return ""
	}
}

// Config is the complete bundler configuration for one compilation stage.
// A Config is also the fragment shape hooks pass to the merge action; zero
// values mean "not set" there, so merging never clears a field back to its
// zero value (use replace for that).
type Config struct {
	Mode        Mode              `yaml:"mode,omitempty"`
	Devtool     string            `yaml:"devtool,omitempty"`
	Entries     map[string]string `yaml:"entries,omitempty"`
	Output      Output            `yaml:"output,omitempty"`
	Module      Module            `yaml:"module,omitempty"`
	Resolve     Resolve           `yaml:"resolve,omitempty"`
	Plugins     []PluginRef       `yaml:"plugins,omitempty"`
	Performance Performance       `yaml:"performance,omitempty"`
}

// Output controls where and under which names compiled artifacts are written.
type Output struct {
	Dir        string `yaml:"dir,omitempty"`
	PublicPath string `yaml:"public_path,omitempty"`
	Filename   string `yaml:"filename,omitempty"` // emitted asset name template, e.g. "[name].[hash][ext]"
}

// Module groups the rule list that routes source files through loaders.
type Module struct {
	Rules []Rule `yaml:"rules,omitempty"`
}

// Rule matches source files by path and names the loader chain applied to them.
type Rule struct {
	Test    string      `yaml:"test,omitempty"` // path regexp, matched against the project-relative path
	Include []string    `yaml:"include,omitempty"`
	Exclude []string    `yaml:"exclude,omitempty"`
	Use     []LoaderUse `yaml:"use,omitempty"`
}

// LoaderUse is a single loader invocation within a rule's chain.
type LoaderUse struct {
	Loader  string         `yaml:"loader"`
	Options map[string]any `yaml:"options,omitempty"`
}

// Resolve controls how non-relative references are resolved during compilation.
type Resolve struct {
	Extensions []string          `yaml:"extensions,omitempty"`
	Alias      map[string]string `yaml:"alias,omitempty"`
	Modules    []string          `yaml:"modules,omitempty"`
}

// PluginRef names a plugin instance participating in the compilation.
type PluginRef struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

// Performance holds advisory limits checked after the asset pass.
type Performance struct {
	Hints        string `yaml:"hints,omitempty"` // off|warning|error
	MaxAssetSize int64  `yaml:"max_asset_size,omitempty"`
}

// IsZero reports whether the config defines nothing, i.e. merging it is a
// no-op.
func (c Config) IsZero() bool {
	return c.Mode == "" && c.Devtool == "" &&
		len(c.Entries) == 0 &&
		c.Output == Output{} &&
		len(c.Module.Rules) == 0 &&
		len(c.Resolve.Extensions) == 0 && len(c.Resolve.Alias) == 0 && len(c.Resolve.Modules) == 0 &&
		len(c.Plugins) == 0 &&
		c.Performance == Performance{}
}

// Clone returns a deep copy. Mutating the copy never affects the original,
// including nested option maps.
func (c Config) Clone() Config {
	out := c
	if c.Entries != nil {
		out.Entries = maps.Clone(c.Entries)
	}
	out.Module.Rules = cloneRules(c.Module.Rules)
	out.Resolve = c.Resolve.clone()
	out.Plugins = ClonePlugins(c.Plugins)
	return out
}

func (r Resolve) clone() Resolve {
	out := r
	if r.Extensions != nil {
		out.Extensions = append([]string(nil), r.Extensions...)
	}
	if r.Alias != nil {
		out.Alias = maps.Clone(r.Alias)
	}
	if r.Modules != nil {
		out.Modules = append([]string(nil), r.Modules...)
	}
	return out
}

func cloneRules(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r.Clone()
	}
	return out
}

// Clone returns a deep copy of the rule.
func (r Rule) Clone() Rule {
	out := r
	if r.Include != nil {
		out.Include = append([]string(nil), r.Include...)
	}
	if r.Exclude != nil {
		out.Exclude = append([]string(nil), r.Exclude...)
	}
	if r.Use != nil {
		out.Use = make([]LoaderUse, len(r.Use))
		for i, u := range r.Use {
			out.Use[i] = u.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the loader invocation.
func (u LoaderUse) Clone() LoaderUse {
	return LoaderUse{Loader: u.Loader, Options: cloneOptions(u.Options)}
}

// Clone returns a deep copy of the plugin reference.
func (p PluginRef) Clone() PluginRef {
	return PluginRef{Name: p.Name, Options: cloneOptions(p.Options)}
}

// ClonePlugins deep-copies a plugin list.
func ClonePlugins(plugins []PluginRef) []PluginRef {
	if plugins == nil {
		return nil
	}
	out := make([]PluginRef, len(plugins))
	for i, p := range plugins {
		out[i] = p.Clone()
	}
	return out
}

// cloneOptions deep-copies an options map including nested maps and slices.
func cloneOptions(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneOptionValue(v)
	}
	return out
}

func cloneOptionValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return cloneOptions(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneOptionValue(e)
		}
		return out
	case []string:
		return append([]string(nil), tv...)
	default:
		return v
	}
}
