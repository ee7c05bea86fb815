package main

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/factory"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/hooks"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

func newParser(t *testing.T) *kong.Kong {
	t.Helper()
	parser, err := kong.New(&CLI, kong.Vars{"version": "test"})
	require.NoError(t, err)
	return parser
}

func TestParseBuildCommand(t *testing.T) {
	parser := newParser(t)

	ctx, err := parser.Parse([]string{"build", "-o", "dist", "-s", "develop", "-s", "build-html"})
	require.NoError(t, err)

	require.Equal(t, "build", ctx.Command())
	require.Equal(t, "dist", CLI.Build.Output)
	require.Equal(t, []string{"develop", "build-html"}, CLI.Build.Stage)
	require.Equal(t, "sitebuilder.yaml", CLI.Config)
}

func TestParseConfigFlag(t *testing.T) {
	parser := newParser(t)

	ctx, err := parser.Parse([]string{"-c", "site/custom.yaml", "validate"})
	require.NoError(t, err)
	require.Equal(t, "validate", ctx.Command())
	require.Equal(t, "site/custom.yaml", CLI.Config)
}

func TestParseInspectRequiresStage(t *testing.T) {
	parser := newParser(t)

	_, err := parser.Parse([]string{"inspect"})
	require.Error(t, err)
}

func TestParseStages(t *testing.T) {
	stages, err := parseStages([]string{"develop", "build-assets"})
	require.NoError(t, err)
	require.Equal(t, []stage.Stage{stage.Develop, stage.BuildAssets}, stages)

	_, err = parseStages([]string{"staging"})
	require.Error(t, err)
	require.Equal(t, errors.CategoryValidation, errors.GetCategory(err))

	stages, err = parseStages(nil)
	require.NoError(t, err)
	require.Empty(t, stages)
}

func TestClassifyDispatchError(t *testing.T) {
	err := fmt.Errorf("assemble develop: %w", &hooks.DispatchError{
		Hook:  "tune-devtool",
		Stage: stage.Develop,
		Err:   fmt.Errorf("boom"),
	})

	got := classify(err)
	require.Equal(t, errors.CategoryHooks, errors.GetCategory(got))
	require.Equal(t, 9, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(got))
}

func TestClassifyValidationError(t *testing.T) {
	got := classify(&bundler.ValidationError{Missing: []string{"output.dir"}})
	require.Equal(t, errors.CategoryBundle, errors.GetCategory(got))
	require.Equal(t, 9, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(got))
}

func TestClassifyNotFoundError(t *testing.T) {
	got := classify(&factory.NotFoundError{Kind: "loader", Name: "sass"})
	require.Equal(t, errors.CategoryFactory, errors.GetCategory(got))
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	original := errors.NewError(errors.CategoryCompile, "render failed").Build()
	require.Same(t, original, classify(original))
}

func TestClassifyLeavesPlainErrors(t *testing.T) {
	plain := fmt.Errorf("something odd")
	require.Equal(t, plain, classify(plain))
	require.Equal(t, 1, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(plain))
}

func TestRunInitThenLoad(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "sitebuilder.yaml")

	require.NoError(t, runInit(cfgPath, false))

	// Refuses to overwrite without --force.
	require.Error(t, runInit(cfgPath, false))
	require.NoError(t, runInit(cfgPath, true))

	cfg, err := loadProject(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "My Site", cfg.Site.Title)
	require.NotEmpty(t, cfg.Build.Stages)
}

func TestLoadProjectClassifiesMissingFile(t *testing.T) {
	_, err := loadProject(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Equal(t, errors.CategoryConfig, errors.GetCategory(err))
	require.Equal(t, 7, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestVersionString(t *testing.T) {
	require.Contains(t, versionString(), "sitebuilder")
}
