package factory

import (
	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// Plugin names every build of SiteBuilder registers out of the box.
const (
	PluginDefine      = "define"
	PluginExtractCSS  = "extract-css"
	PluginMinify      = "minify"
	PluginFingerprint = "fingerprint"
	PluginClean       = "clean"
	PluginManifest    = "manifest"
)

// PluginFactory produces a plugin descriptor appropriate for the given stage.
type PluginFactory func(st stage.Stage) bundler.PluginRef

// Plugins is the registry of named plugin factories.
type Plugins struct {
	reg *registry[PluginFactory]
}

// NewPlugins creates an empty plugin registry.
func NewPlugins() *Plugins {
	return &Plugins{reg: newRegistry[PluginFactory]("plugin")}
}

// NewDefaultPlugins creates a plugin registry pre-populated with the built-in factories.
func NewDefaultPlugins() *Plugins {
	p := NewPlugins()
	// Built-in registrations cannot collide on a fresh registry.
	_ = p.Register(PluginDefine, DefinePlugin)
	_ = p.Register(PluginExtractCSS, ExtractCSSPlugin)
	_ = p.Register(PluginMinify, MinifyPlugin)
	_ = p.Register(PluginFingerprint, FingerprintPlugin)
	_ = p.Register(PluginClean, CleanPlugin)
	_ = p.Register(PluginManifest, ManifestPlugin)
	return p
}

// Register adds a plugin factory under name.
// Returns an error if the name is empty or already taken.
func (p *Plugins) Register(name string, factory PluginFactory) error {
	return p.reg.register(name, factory)
}

// Build invokes the factory registered under name for the given stage.
// Unknown names return a *NotFoundError; there is no default plugin.
func (p *Plugins) Build(name string, st stage.Stage) (bundler.PluginRef, error) {
	factory, err := p.reg.get(name)
	if err != nil {
		return bundler.PluginRef{}, err
	}
	return factory(st), nil
}

// Has checks if a plugin factory with the given name exists.
func (p *Plugins) Has(name string) bool { return p.reg.has(name) }

// Names returns all registered plugin names sorted.
func (p *Plugins) Names() []string { return p.reg.names() }

// DefinePlugin injects site-level constants into compiled pages. The values
// map is filled by the base configuration from project metadata.
func DefinePlugin(st stage.Stage) bundler.PluginRef {
	return bundler.PluginRef{
		Name: PluginDefine,
		Options: map[string]any{
			"values": map[string]any{},
		},
	}
}

// ExtractCSSPlugin moves styles into standalone files. Disabled during the
// interactive develop stage where styles stay inline.
func ExtractCSSPlugin(st stage.Stage) bundler.PluginRef {
	return bundler.PluginRef{
		Name: PluginExtractCSS,
		Options: map[string]any{
			"enabled":  st != stage.Develop,
			"filename": "[name].[hash].css",
		},
	}
}

// MinifyPlugin compresses emitted artifacts in production stages.
func MinifyPlugin(st stage.Stage) bundler.PluginRef {
	return bundler.PluginRef{
		Name: PluginMinify,
		Options: map[string]any{
			"enabled": st.IsProduction(),
		},
	}
}

// FingerprintPlugin renames emitted assets with a content hash in production stages.
func FingerprintPlugin(st stage.Stage) bundler.PluginRef {
	return bundler.PluginRef{
		Name: PluginFingerprint,
		Options: map[string]any{
			"enabled": st.IsProduction(),
			"length":  8,
		},
	}
}

// CleanPlugin empties the output directory before production asset builds.
func CleanPlugin(st stage.Stage) bundler.PluginRef {
	return bundler.PluginRef{
		Name: PluginClean,
		Options: map[string]any{
			"enabled": st == stage.BuildAssets,
		},
	}
}

// ManifestPlugin records the source path to emitted path mapping.
func ManifestPlugin(st stage.Stage) bundler.PluginRef {
	return bundler.PluginRef{
		Name: PluginManifest,
		Options: map[string]any{
			"filename": "asset-manifest.json",
		},
	}
}
