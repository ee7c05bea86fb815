package config

import (
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// applyDefaults fills unset fields with sensible values. It runs after
// unmarshalling and before validation, so validation always sees the
// effective configuration.
func applyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "My Site"
	}

	if cfg.Paths.Content == "" {
		cfg.Paths.Content = "content"
	}
	if cfg.Paths.Assets == "" {
		cfg.Paths.Assets = "assets"
	}
	if cfg.Paths.Templates == "" {
		cfg.Paths.Templates = "templates"
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "public"
	}
	if cfg.Output.PublicPath == "" {
		cfg.Output.PublicPath = "/"
	}

	// Production pair unless the user selected stages explicitly.
	if len(cfg.Build.Stages) == 0 {
		cfg.Build.Stages = []stage.Stage{stage.BuildAssets, stage.BuildHTML}
	}
	if cfg.Build.CacheSize <= 0 {
		cfg.Build.CacheSize = 64
	}
	if cfg.Build.WatchDebounce == "" {
		cfg.Build.WatchDebounce = "300ms"
	}

	// Logging fields stay as written so Validate can reject typos; readers
	// normalize through NormalizeLogLevel/NormalizeLogFormat.
}
