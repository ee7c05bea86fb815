package bundler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Mode:    ModeProduction,
		Entries: map[string]string{"pages": "content"},
		Output:  Output{Dir: "public"},
		Module: Module{Rules: []Rule{
			{Test: `\.md$`, Use: []LoaderUse{{Loader: "markdown"}}},
		}},
		Plugins: []PluginRef{{Name: "define"}},
	}
}

func TestValidate_CompleteConfig_NoError(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_MissingRequiredKeys_ListsAll(t *testing.T) {
	cfg := Config{}
	err := cfg.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, []string{"entries", "output.dir"}, ve.Missing)
	require.Contains(t, err.Error(), "entries")
	require.Contains(t, err.Error(), "output.dir")
}

func TestValidate_RuleWithoutLoaders_Problem(t *testing.T) {
	cfg := validConfig()
	cfg.Module.Rules = append(cfg.Module.Rules, Rule{Test: `\.css$`})

	var ve *ValidationError
	require.ErrorAs(t, cfg.Validate(), &ve)
	require.Empty(t, ve.Missing)
	require.Contains(t, ve.Problems[0], "module.rules[1]: no loaders")
}

func TestValidate_InvalidRuleRegexp_Problem(t *testing.T) {
	cfg := validConfig()
	cfg.Module.Rules[0].Test = `\.(md$`

	var ve *ValidationError
	require.ErrorAs(t, cfg.Validate(), &ve)
	require.Contains(t, ve.Problems[0], "invalid test")
}

func TestValidate_UnnamedPlugin_Problem(t *testing.T) {
	cfg := validConfig()
	cfg.Plugins = append(cfg.Plugins, PluginRef{Options: map[string]any{"enabled": true}})

	var ve *ValidationError
	require.ErrorAs(t, cfg.Validate(), &ve)
	require.Contains(t, ve.Problems[0], "plugins[1]: missing name")
}

func TestValidate_UnknownMode_Problem(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "release"

	var ve *ValidationError
	require.ErrorAs(t, cfg.Validate(), &ve)
	require.Contains(t, ve.Problems[0], "mode")
}

func TestValidate_UnknownPerformanceHints_Problem(t *testing.T) {
	cfg := validConfig()
	cfg.Performance.Hints = "panic"

	var ve *ValidationError
	require.ErrorAs(t, cfg.Validate(), &ve)
	require.Contains(t, ve.Problems[0], "performance.hints")
}

func TestNormalizeMode_CanonicalizesInput(t *testing.T) {
	require.Equal(t, ModeDevelopment, NormalizeMode(" Development "))
	require.Equal(t, ModeProduction, NormalizeMode("production"))
	require.Equal(t, Mode(""), NormalizeMode("fast"))
}
