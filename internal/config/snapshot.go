package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of build-affecting configuration fields.
// It is intentionally narrower than full serialization to avoid noisy
// rebuilds when unrelated config fields change (logging, for one). Callers
// SHOULD run applyDefaults before computing a snapshot to ensure canonical
// field values.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) { h.Write([]byte(strings.Join(parts, "="))); h.Write([]byte{0}) }
	// Site essentials
	w("site.title", c.Site.Title)
	w("site.description", c.Site.Description)
	w("site.base_url", c.Site.BaseURL)
	writeParams(w, "site.params", c.Site.Params)
	// Paths
	w("paths.content", c.Paths.Content)
	w("paths.assets", c.Paths.Assets)
	w("paths.templates", c.Paths.Templates)
	// Output
	w("output.dir", c.Output.Dir)
	w("output.public_path", c.Output.PublicPath)
	w("output.clean", strconv.FormatBool(c.Output.Clean))
	// Stage selection
	names := make([]string, len(c.Build.Stages))
	for i, st := range c.Build.Stages {
		names[i] = st.String()
	}
	w("build.stages", strings.Join(names, ","))
	// Bundler fragment participates through its own stable hash
	w("bundler", c.Bundler.Hash())
	return hex.EncodeToString(h.Sum(nil))
}

// writeParams hashes a nested params map deterministically.
func writeParams(w func(parts ...string), prefix string, params map[string]any) {
	if len(params) == 0 {
		return
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := prefix + "." + k
		if nested, ok := params[k].(map[string]any); ok {
			writeParams(w, key, nested)
			continue
		}
		w(key, stringify(params[k]))
	}
}

func stringify(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case int:
		return strconv.Itoa(tv)
	case int64:
		return strconv.FormatInt(tv, 10)
	case float64:
		return strconv.FormatFloat(tv, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", tv)
	}
}
