package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "sitebuilder.yaml"

// Config represents the application configuration
type Config struct {
	Site    SiteConfig     `yaml:"site"`
	Paths   PathsConfig    `yaml:"paths,omitempty"`
	Output  OutputConfig   `yaml:"output,omitempty"`
	Build   BuildConfig    `yaml:"build,omitempty"`
	Bundler bundler.Config `yaml:"bundler,omitempty"` // fragment merged into every stage's configuration
	Logging LoggingConfig  `yaml:"logging,omitempty"`
}

// SiteConfig describes the site being built.
type SiteConfig struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description,omitempty"`
	BaseURL     string         `yaml:"base_url,omitempty"`
	Params      map[string]any `yaml:"params,omitempty"`
}

// PathsConfig locates the project source directories.
type PathsConfig struct {
	Content   string `yaml:"content,omitempty"`
	Assets    string `yaml:"assets,omitempty"`
	Templates string `yaml:"templates,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	PublicPath string `yaml:"public_path,omitempty"`
	Clean      bool   `yaml:"clean"` // Clean output directory before build
}

// BuildConfig holds build tuning knobs.
type BuildConfig struct {
	// Stages selects which compilation stages a build run assembles and
	// compiles. Empty means the production pair.
	Stages []stage.Stage `yaml:"stages,omitempty"`
	// CacheSize caps the number of resolved stage configurations kept in memory.
	CacheSize int `yaml:"cache_size,omitempty"`
	// WatchDebounce is the quiet period between a config change and the rebuild.
	WatchDebounce string `yaml:"watch_debounce,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// A broken .env should not block the build; variables simply stay unset.
		slog.Warn("Could not load .env file", "error", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// exampleConfig is the starter file written by Init. It is a hand-written
// template rather than a marshalled Config so the comments survive.
const exampleConfig = `# sitebuilder project configuration.
# Environment variable references in values expand at load time,
# with .env in the project root loaded first.

site:
  title: My Site
  description: A static site built with sitebuilder
  base_url: https://example.com

# Source directories, relative to the project root.
paths:
  content: content
  assets: assets
  templates: templates

output:
  dir: public
  public_path: /
  # Remove stale files from the output directory before each build.
  clean: true

build:
  # Stages assembled and compiled by a build run. Known stages:
  # develop, develop-html, build-assets, build-html.
  stages:
    - build-assets
    - build-html
  # cache_size: 64
  # watch_debounce: 300ms

# Bundler fragment merged into every stage's configuration.
bundler:
  resolve:
    alias:
      "~": assets

# logging:
#   level: info   # debug, info, warn, error
#   format: text  # text, json
`

// Init creates a new configuration file with commented example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
