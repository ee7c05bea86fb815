package assemble

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// emittedConfig is the on-disk shape of a resolved stage configuration.
type emittedConfig struct {
	Stage  string         `yaml:"stage"`
	Hash   string         `yaml:"config_hash"`
	Config bundler.Config `yaml:"config"`
}

// ConfigFileName returns the artifact name for a stage's resolved config.
func ConfigFileName(res Resolved) string {
	return fmt.Sprintf("config.%s.yaml", res.Stage)
}

// WriteStageConfig writes the resolved configuration for one stage as a YAML
// artifact under dir. The write is atomic (temp file, rename) so a watcher
// or a concurrent reader never observes a half-written config.
func WriteStageConfig(dir string, res Resolved) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("ensure config dir: %w", err)
	}

	doc := emittedConfig{
		Stage:  res.Stage.String(),
		Hash:   res.Hash,
		Config: res.Config,
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("marshal %s configuration: %w", res.Stage, err)
	}

	path := filepath.Join(dir, ConfigFileName(res))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write temp configuration: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("atomic rename configuration: %w", err)
	}

	slog.Info("Emitted stage bundler configuration",
		logfields.Stage(res.Stage.String()), logfields.Path(path))
	return path, nil
}

// MarshalResolved renders a resolved configuration as YAML without writing
// it, for inspection output.
func MarshalResolved(res Resolved) ([]byte, error) {
	doc := emittedConfig{
		Stage:  res.Stage.String(),
		Hash:   res.Hash,
		Config: res.Config,
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal %s configuration: %w", res.Stage, err)
	}
	return data, nil
}
