package assemble

import (
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/factory"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// BaseConfig constructs the pre-hook configuration for one stage. Entries
// and output come from the project config; the baseline rule set and plugin
// list come from the factory registries with stage-appropriate defaults.
func (a *Assembler) BaseConfig(st stage.Stage) (bundler.Config, error) {
	loaders := a.dispatcher.LoaderFactories()
	plugins := a.dispatcher.PluginFactories()

	// Collect the first factory failure instead of threading an error
	// check through every descriptor below.
	var buildErr error
	use := func(name string) bundler.LoaderUse {
		u, err := loaders.Build(name, st)
		if err != nil && buildErr == nil {
			buildErr = err
		}
		return u
	}
	plug := func(name string) bundler.PluginRef {
		p, err := plugins.Build(name, st)
		if err != nil && buildErr == nil {
			buildErr = err
		}
		return p
	}

	// Phase 1: scalar defaults derived from the stage
	cfg := bundler.Config{
		Mode:    bundler.ModeDevelopment,
		Devtool: defaultDevtool(st),
		Entries: map[string]string{"pages": a.project.Paths.Content},
		Output: bundler.Output{
			Dir:        a.project.Output.Dir,
			PublicPath: a.project.Output.PublicPath,
		},
		Resolve: bundler.Resolve{
			Extensions: []string{".md", ".html", ".css", ".js"},
			Modules:    []string{a.project.Paths.Assets},
		},
	}
	if st.IsProduction() {
		cfg.Mode = bundler.ModeProduction
	}

	// Phase 2: baseline rules via loader factories
	cfg.Module.Rules = []bundler.Rule{
		{
			Test: `\.md$`,
			// Rule paths are matched project-relative, so the include is the
			// walked directory's name, not the configured path.
			Include: []string{filepath.Base(a.project.Paths.Content)},
			Use:     []bundler.LoaderUse{use(factory.LoaderMarkdown), use(factory.LoaderHTML)},
		},
		{
			Test: `\.css$`,
			Use:  []bundler.LoaderUse{use(factory.LoaderCSS), use(factory.LoaderStyleExtract)},
		},
		{
			Test: `\.m?js$`,
			Use:  []bundler.LoaderUse{use(factory.LoaderJS)},
		},
		{
			Test: `\.(png|jpe?g|gif|svg|ico|webp|woff2?|ttf)$`,
			Use:  []bundler.LoaderUse{use(factory.LoaderFiles)},
		},
	}

	// Phase 3: baseline plugins, site metadata injected into define
	define := plug(factory.PluginDefine)
	if values, ok := define.Options["values"].(map[string]any); ok {
		values["SITE_TITLE"] = a.project.Site.Title
		values["SITE_BASE_URL"] = a.project.Site.BaseURL
		values["STAGE"] = st.String()
	}
	cfg.Plugins = []bundler.PluginRef{
		define,
		plug(factory.PluginExtractCSS),
		plug(factory.PluginManifest),
	}
	if st.IsProduction() {
		cfg.Plugins = append(cfg.Plugins, plug(factory.PluginMinify), plug(factory.PluginFingerprint))
	}
	if a.project.Output.Clean && st == stage.BuildAssets {
		cfg.Plugins = append(cfg.Plugins, plug(factory.PluginClean))
	}

	if buildErr != nil {
		return bundler.Config{}, buildErr
	}
	return cfg, nil
}

// defaultDevtool picks the source-map flavor per stage; production stages
// ship without one.
func defaultDevtool(st stage.Stage) string {
	if st.IsDevelopment() {
		return "inline-source-map"
	}
	return ""
}
