package compile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/factory"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// defaultNameTemplate names fingerprinted assets when neither the output
// section nor a files loader option overrides it.
const defaultNameTemplate = "[name].[hash][ext]"

// AssetResult summarizes one asset pass.
type AssetResult struct {
	// Emitted lists output-relative paths of written assets, walk order.
	Emitted []string
	// Manifest maps the output-relative source name of each emitted asset
	// to its output-relative emitted name. Without fingerprinting the two
	// sides are equal.
	Manifest map[string]string
	// Violations describes assets over the configured performance budget.
	// The caller decides severity from Performance.Hints.
	Violations []string
}

// BudgetError reports assets exceeding the configured performance budget.
type BudgetError struct {
	Violations []string
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%d asset(s) exceed the performance budget", len(e.Violations))
}

// Assets runs the asset pass: walk assetsDir, match every file against the
// finalized rule set and copy the matched ones into outDir, fingerprinting
// names when the fingerprint plugin is enabled. Rule patterns match the
// project-relative path, so a file img/logo.png under assets/ is matched as
// assets/img/logo.png. Files routed through the markdown loader belong to
// the page pass and are skipped here.
func Assets(ctx context.Context, assetsDir, outDir string, cfg bundler.Config) (AssetResult, error) {
	result := AssetResult{Manifest: map[string]string{}}

	rules, err := compileRules(cfg.Module.Rules)
	if err != nil {
		return result, err
	}

	if pluginEnabled(cfg, factory.PluginClean) {
		if err := cleanDir(outDir); err != nil {
			return result, err
		}
	}

	if _, err := os.Stat(assetsDir); os.IsNotExist(err) {
		slog.Debug("No assets directory, skipping asset pass", logfields.Path(assetsDir))
		return result, nil
	}

	fingerprint := pluginEnabled(cfg, factory.PluginFingerprint)
	hashLen := 8
	if fp, ok := findPlugin(cfg, factory.PluginFingerprint); ok {
		hashLen = intOption(fp.Options, "length", hashLen)
	}

	prefix := filepath.Base(assetsDir)
	walkErr := filepath.WalkDir(assetsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(assetsDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		matches := matchingRules(rules, path.Join(prefix, rel))
		if len(matches) == 0 || usesLoader(matches, factory.LoaderMarkdown) {
			return nil
		}
		fileOpts := loaderOptions(matches, factory.LoaderFiles)
		if !boolOption(fileOpts, "emit", true) {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "read asset").
				WithContext("path", p).Build()
		}

		relOut := rel
		if fingerprint && boolOption(fileOpts, "fingerprint", true) {
			tmpl := stringOption(fileOpts, "name", cfg.Output.Filename)
			if tmpl == "" {
				tmpl = defaultNameTemplate
			}
			relOut = path.Join(path.Dir(rel), fingerprintName(path.Base(rel), data, tmpl, hashLen))
			relOut = strings.TrimPrefix(relOut, "./")
		}

		target := filepath.Join(outDir, filepath.FromSlash(relOut))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create asset directory").
				WithContext("path", filepath.Dir(target)).Build()
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write asset").
				WithContext("path", target).Build()
		}

		result.Emitted = append(result.Emitted, relOut)
		result.Manifest[rel] = relOut
		if v := budgetViolation(cfg.Performance, rel, int64(len(data))); v != "" {
			result.Violations = append(result.Violations, v)
		}
		slog.Debug("Emitted asset", logfields.Path(relOut))
		return nil
	})
	if walkErr != nil {
		return result, walkErr
	}

	if p, ok := findPlugin(cfg, factory.PluginManifest); ok {
		name := stringOption(p.Options, "filename", "asset-manifest.json")
		if err := writeManifest(filepath.Join(outDir, name), result.Manifest); err != nil {
			return result, err
		}
	}

	slog.Info("Asset pass complete",
		slog.Int("emitted", len(result.Emitted)),
		slog.Int("violations", len(result.Violations)))
	return result, nil
}

// LoadManifest reads the asset manifest the manifest plugin left in outDir
// during an earlier asset build. A missing artifact or an absent plugin
// yields an empty manifest, not an error.
func LoadManifest(outDir string, cfg bundler.Config) (map[string]string, error) {
	p, ok := findPlugin(cfg, factory.PluginManifest)
	if !ok {
		return map[string]string{}, nil
	}
	name := stringOption(p.Options, "filename", "asset-manifest.json")
	data, err := os.ReadFile(filepath.Join(outDir, name))
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read asset manifest").
			WithContext("path", name).Build()
	}
	manifest := map[string]string{}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.WrapError(err, errors.CategoryCompile, "decode asset manifest").
			WithContext("path", name).Build()
	}
	return manifest, nil
}

// fingerprintName expands the emitted-name template for one asset.
// Supported placeholders: [name], [hash], [ext].
func fingerprintName(base string, data []byte, tmpl string, hashLen int) string {
	ext := path.Ext(base)
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	if hashLen > 0 && hashLen < len(hash) {
		hash = hash[:hashLen]
	}
	out := strings.ReplaceAll(tmpl, "[name]", strings.TrimSuffix(base, ext))
	out = strings.ReplaceAll(out, "[hash]", hash)
	out = strings.ReplaceAll(out, "[ext]", ext)
	return out
}

// budgetViolation formats a violation when size exceeds the advisory budget,
// empty string otherwise.
func budgetViolation(perf bundler.Performance, rel string, size int64) string {
	if perf.Hints == "" || perf.Hints == "off" || perf.MaxAssetSize <= 0 {
		return ""
	}
	if size <= perf.MaxAssetSize {
		return ""
	}
	return fmt.Sprintf("%s is %d bytes, budget is %d bytes", rel, size, perf.MaxAssetSize)
}

// cleanDir empties dir before a production asset build. Dot entries survive:
// the stage artifact dir and VCS metadata live there. Cleaning a missing dir
// is a no-op.
func cleanDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if abs == string(filepath.Separator) || filepath.Dir(abs) == abs {
		return errors.FileSystemError("refusing to clean filesystem root").
			WithContext("dir", dir).Build()
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "read output directory").
			WithContext("dir", dir).Build()
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "clean output entry").
				WithContext("entry", e.Name()).Build()
		}
	}
	slog.Debug("Cleaned output directory", logfields.Path(dir))
	return nil
}

// writeManifest persists the asset manifest atomically next to the assets.
func writeManifest(target string, manifest map[string]string) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal asset manifest").Build()
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create manifest directory").
			WithContext("path", filepath.Dir(target)).Build()
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write asset manifest").
			WithContext("path", tmp).Build()
	}
	if err := os.Rename(tmp, target); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "persist asset manifest").
			WithContext("path", target).Build()
	}
	return nil
}
