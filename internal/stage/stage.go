// Package stage defines the closed set of compilation stages a site build
// passes through. Every bundler configuration is assembled for exactly one
// stage, and hook callbacks receive the stage so they can branch on it
// without string comparison.
package stage

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stage identifies one compilation pass of the site build.
type Stage int

const (
	// Develop serves the site with fast rebuilds and inline styles.
	Develop Stage = iota
	// DevelopHTML renders page HTML during development runs.
	DevelopHTML
	// BuildAssets produces the optimized production asset bundles.
	BuildAssets
	// BuildHTML renders the final static page HTML for production.
	BuildHTML
)

// All returns every stage in execution order.
func All() []Stage {
	return []Stage{Develop, DevelopHTML, BuildAssets, BuildHTML}
}

// String returns the canonical name of the stage.
func (s Stage) String() string {
	switch s {
	case Develop:
		return "develop"
	case DevelopHTML:
		return "develop-html"
	case BuildAssets:
		return "build-assets"
	case BuildHTML:
		return "build-html"
	default:
		return "unknown"
	}
}

// IsDevelopment reports whether the stage belongs to a development run.
func (s Stage) IsDevelopment() bool {
	return s == Develop || s == DevelopHTML
}

// IsProduction reports whether the stage belongs to a production build.
func (s Stage) IsProduction() bool {
	return s == BuildAssets || s == BuildHTML
}

// RendersHTML reports whether the stage produces page HTML rather than asset bundles.
func (s Stage) RendersHTML() bool {
	return s == DevelopHTML || s == BuildHTML
}

// Valid reports whether s is one of the defined stages.
func (s Stage) Valid() bool {
	return s >= Develop && s <= BuildHTML
}

// Parse canonicalizes user input into a Stage.
// Unknown names return an error naming the accepted set.
func Parse(raw string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case Develop.String():
		return Develop, nil
	case DevelopHTML.String():
		return DevelopHTML, nil
	case BuildAssets.String():
		return BuildAssets, nil
	case BuildHTML.String():
		return BuildHTML, nil
	default:
		return 0, fmt.Errorf("unknown stage %q (expected one of: develop, develop-html, build-assets, build-html)", raw)
	}
}

// MarshalYAML serializes the stage as its canonical name.
func (s Stage) MarshalYAML() (any, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid stage %d", int(s))
	}
	return s.String(), nil
}

// UnmarshalYAML parses a stage from its canonical name.
func (s *Stage) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
