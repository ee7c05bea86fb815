package factory

import (
	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// Loader names every build of SiteBuilder registers out of the box.
const (
	LoaderMarkdown     = "markdown"
	LoaderCSS          = "css"
	LoaderStyleExtract = "style-extract"
	LoaderStyleInline  = "style-inline"
	LoaderJS           = "js"
	LoaderFiles        = "files"
	LoaderHTML         = "html"
)

// LoaderFactory produces a loader descriptor appropriate for the given stage.
type LoaderFactory func(st stage.Stage) bundler.LoaderUse

// Loaders is the registry of named loader factories.
type Loaders struct {
	reg *registry[LoaderFactory]
}

// NewLoaders creates an empty loader registry.
func NewLoaders() *Loaders {
	return &Loaders{reg: newRegistry[LoaderFactory]("loader")}
}

// NewDefaultLoaders creates a loader registry pre-populated with the built-in factories.
func NewDefaultLoaders() *Loaders {
	l := NewLoaders()
	// Built-in registrations cannot collide on a fresh registry.
	_ = l.Register(LoaderMarkdown, MarkdownLoader)
	_ = l.Register(LoaderCSS, CSSLoader)
	_ = l.Register(LoaderStyleExtract, StyleExtractLoader)
	_ = l.Register(LoaderJS, JSLoader)
	_ = l.Register(LoaderFiles, FilesLoader)
	_ = l.Register(LoaderHTML, HTMLLoader)
	return l
}

// Register adds a loader factory under name.
// Returns an error if the name is empty or already taken.
func (l *Loaders) Register(name string, factory LoaderFactory) error {
	return l.reg.register(name, factory)
}

// Build invokes the factory registered under name for the given stage.
// Unknown names return a *NotFoundError; there is no default loader.
func (l *Loaders) Build(name string, st stage.Stage) (bundler.LoaderUse, error) {
	factory, err := l.reg.get(name)
	if err != nil {
		return bundler.LoaderUse{}, err
	}
	return factory(st), nil
}

// Has checks if a loader factory with the given name exists.
func (l *Loaders) Has(name string) bool { return l.reg.has(name) }

// Names returns all registered loader names sorted.
func (l *Loaders) Names() []string { return l.reg.names() }

// MarkdownLoader renders markdown sources to page HTML. Raw inline HTML is
// only allowed during development runs.
func MarkdownLoader(st stage.Stage) bundler.LoaderUse {
	return bundler.LoaderUse{
		Loader: LoaderMarkdown,
		Options: map[string]any{
			"gfm":         true,
			"typographer": true,
			"hard_wraps":  false,
			"unsafe_html": st.IsDevelopment(),
		},
	}
}

// CSSLoader processes stylesheets. Production stages minify.
func CSSLoader(st stage.Stage) bundler.LoaderUse {
	return bundler.LoaderUse{
		Loader: LoaderCSS,
		Options: map[string]any{
			"minify":      st.IsProduction(),
			"source_maps": st.IsDevelopment(),
		},
	}
}

// StyleExtractLoader emits styles into standalone files. During the
// interactive develop stage it degrades to the inline variant so style
// changes apply without a full reload.
func StyleExtractLoader(st stage.Stage) bundler.LoaderUse {
	if st == stage.Develop {
		return bundler.LoaderUse{Loader: LoaderStyleInline}
	}
	return bundler.LoaderUse{
		Loader: LoaderStyleExtract,
		Options: map[string]any{
			"filename": "[name].[hash].css",
		},
	}
}

// JSLoader processes script sources. Production stages minify.
func JSLoader(st stage.Stage) bundler.LoaderUse {
	return bundler.LoaderUse{
		Loader: LoaderJS,
		Options: map[string]any{
			"minify": st.IsProduction(),
		},
	}
}

// FilesLoader copies static files through to the output. Only stages that
// produce asset bundles emit; HTML render stages reference assets emitted
// earlier. Production output is fingerprinted.
func FilesLoader(st stage.Stage) bundler.LoaderUse {
	return bundler.LoaderUse{
		Loader: LoaderFiles,
		Options: map[string]any{
			"emit":        st == stage.Develop || st == stage.BuildAssets,
			"fingerprint": st.IsProduction(),
		},
	}
}

// HTMLLoader wraps rendered page bodies in the site template.
func HTMLLoader(st stage.Stage) bundler.LoaderUse {
	return bundler.LoaderUse{
		Loader: LoaderHTML,
		Options: map[string]any{
			"minify": st.IsProduction(),
		},
	}
}
