package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks the effective configuration for contradictions the
// defaults cannot repair. It expects applyDefaults to have run.
func Validate(cfg *Config) error {
	if cfg.Paths.Content == "" {
		return fmt.Errorf("paths.content must not be empty")
	}
	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}

	if cfg.Site.BaseURL != "" {
		u, err := url.Parse(cfg.Site.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("site.base_url %q is not an absolute URL", cfg.Site.BaseURL)
		}
	}

	seen := make(map[string]bool, len(cfg.Build.Stages))
	for _, st := range cfg.Build.Stages {
		if !st.Valid() {
			return fmt.Errorf("build.stages contains invalid stage %d", int(st))
		}
		if seen[st.String()] {
			return fmt.Errorf("build.stages lists stage %s twice", st)
		}
		seen[st.String()] = true
	}

	if _, err := time.ParseDuration(cfg.Build.WatchDebounce); err != nil {
		return fmt.Errorf("build.watch_debounce %q is not a duration: %w", cfg.Build.WatchDebounce, err)
	}

	// Unset logging fields fall back to defaults, but a present value has
	// to be a known one so typos do not silently drop log output.
	if cfg.Logging.Level != "" {
		if _, err := logLevelNormalizer.Parse(string(cfg.Logging.Level)); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	if cfg.Logging.Format != "" {
		if _, err := logFormatNormalizer.Parse(string(cfg.Logging.Format)); err != nil {
			return fmt.Errorf("logging.format: %w", err)
		}
	}

	return nil
}

// WatchDebounce returns the parsed debounce interval.
// Validate guarantees the field parses.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Build.WatchDebounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}
