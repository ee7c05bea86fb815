package bundler

import (
	"fmt"
	"regexp"
	"strings"
)

// RequiredKeys are the top-level configuration keys every complete Config
// must carry. Replace actions are rejected when any of them is missing.
var RequiredKeys = []string{"entries", "output.dir"}

// ValidationError reports an incomplete or inconsistent configuration.
// Missing lists required top-level keys that are absent; Problems lists
// structural violations in the keys that are present.
type ValidationError struct {
	Missing  []string
	Problems []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required keys: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Problems) > 0 {
		parts = append(parts, strings.Join(e.Problems, "; "))
	}
	if len(parts) == 0 {
		return "invalid bundler config"
	}
	return "invalid bundler config: " + strings.Join(parts, "; ")
}

// Validate checks that the configuration is complete enough to compile.
// All violations are collected into a single *ValidationError rather than
// failing on the first one.
func (c *Config) Validate() error {
	ve := &ValidationError{}

	if len(c.Entries) == 0 {
		ve.Missing = append(ve.Missing, "entries")
	}
	if c.Output.Dir == "" {
		ve.Missing = append(ve.Missing, "output.dir")
	}

	if c.Mode != "" && NormalizeMode(string(c.Mode)) == "" {
		ve.Problems = append(ve.Problems, fmt.Sprintf("mode: unknown value %q", c.Mode))
	}

	for name, path := range c.Entries {
		if name == "" {
			ve.Problems = append(ve.Problems, "entries: empty entry name")
		}
		if path == "" {
			ve.Problems = append(ve.Problems, fmt.Sprintf("entries.%s: empty path", name))
		}
	}

	for i, rule := range c.Module.Rules {
		if rule.Test == "" {
			ve.Problems = append(ve.Problems, fmt.Sprintf("module.rules[%d]: missing test", i))
		} else if _, err := regexp.Compile(rule.Test); err != nil {
			ve.Problems = append(ve.Problems, fmt.Sprintf("module.rules[%d]: invalid test %q: %v", i, rule.Test, err))
		}
		if len(rule.Use) == 0 {
			ve.Problems = append(ve.Problems, fmt.Sprintf("module.rules[%d]: no loaders", i))
		}
		for j, use := range rule.Use {
			if use.Loader == "" {
				ve.Problems = append(ve.Problems, fmt.Sprintf("module.rules[%d].use[%d]: missing loader name", i, j))
			}
		}
	}

	for i, plugin := range c.Plugins {
		if plugin.Name == "" {
			ve.Problems = append(ve.Problems, fmt.Sprintf("plugins[%d]: missing name", i))
		}
	}

	switch c.Performance.Hints {
	case "", "off", "warning", "error":
	default:
		ve.Problems = append(ve.Problems, fmt.Sprintf("performance.hints: unknown value %q", c.Performance.Hints))
	}

	if len(ve.Missing) > 0 || len(ve.Problems) > 0 {
		return ve
	}
	return nil
}
