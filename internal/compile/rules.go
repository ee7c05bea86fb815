// Package compile runs the minimal compilation passes that exercise a
// finalized stage configuration: static asset emission with fingerprinting
// and a manifest, markdown page rendering, and post-processing of emitted
// HTML against the manifest. It is deliberately not a full bundler.
package compile

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// compiledRule pairs a rule with its compiled path pattern.
type compiledRule struct {
	re   *regexp.Regexp
	rule bundler.Rule
}

// compileRules compiles every rule's Test pattern. Patterns were validated
// during finalize, so a failure here means the config bypassed validation.
func compileRules(rules []bundler.Rule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Test)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryCompile, "invalid rule pattern").
				WithContext("pattern", r.Test).Build()
		}
		out = append(out, compiledRule{re: re, rule: r})
	}
	return out, nil
}

// matches reports whether rel (a slash-separated project-relative path)
// falls under this rule: the pattern must match, at least one include
// prefix when includes are given, and no exclude prefix.
func (cr compiledRule) matches(rel string) bool {
	if !cr.re.MatchString(rel) {
		return false
	}
	if len(cr.rule.Include) > 0 {
		included := false
		for _, p := range cr.rule.Include {
			if strings.HasPrefix(rel, p) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, p := range cr.rule.Exclude {
		if strings.HasPrefix(rel, p) {
			return false
		}
	}
	return true
}

// matchingRules returns every rule matching rel, preserving concatenation
// order. All of them apply; later rules override earlier option values.
func matchingRules(rules []compiledRule, rel string) []compiledRule {
	var out []compiledRule
	for _, cr := range rules {
		if cr.matches(rel) {
			out = append(out, cr)
		}
	}
	return out
}

// usesLoader reports whether any matching rule routes through the named loader.
func usesLoader(matches []compiledRule, loader string) bool {
	for _, m := range matches {
		for _, u := range m.rule.Use {
			if u.Loader == loader {
				return true
			}
		}
	}
	return false
}

// loaderOptions returns the effective options of the named loader across
// the matching rules. Later matches override earlier ones; nested option
// maps merge recursively instead of being replaced wholesale.
func loaderOptions(matches []compiledRule, loader string) map[string]any {
	out := map[string]any{}
	for _, m := range matches {
		for _, u := range m.rule.Use {
			if u.Loader == loader {
				out = bundler.MergeOptions(out, u.Options)
			}
		}
	}
	return out
}

// configLoaderOptions scans the whole rule set for the named loader and
// merges its options the same way loaderOptions does.
func configLoaderOptions(cfg bundler.Config, loader string) map[string]any {
	out := map[string]any{}
	for _, r := range cfg.Module.Rules {
		for _, u := range r.Use {
			if u.Loader == loader {
				out = bundler.MergeOptions(out, u.Options)
			}
		}
	}
	return out
}

// findPlugin returns the first plugin ref with the given name.
func findPlugin(cfg bundler.Config, name string) (bundler.PluginRef, bool) {
	for _, p := range cfg.Plugins {
		if p.Name == name {
			return p, true
		}
	}
	return bundler.PluginRef{}, false
}

// pluginEnabled reports whether the named plugin participates: present and
// not switched off through its enabled option.
func pluginEnabled(cfg bundler.Config, name string) bool {
	p, ok := findPlugin(cfg, name)
	if !ok {
		return false
	}
	return boolOption(p.Options, "enabled", true)
}

func boolOption(opts map[string]any, key string, def bool) bool {
	if opts == nil {
		return def
	}
	if v, ok := opts[key].(bool); ok {
		return v
	}
	return def
}

func intOption(opts map[string]any, key string, def int) int {
	if opts == nil {
		return def
	}
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func stringOption(opts map[string]any, key string, def string) string {
	if opts == nil {
		return def
	}
	if v, ok := opts[key].(string); ok && v != "" {
		return v
	}
	return def
}
