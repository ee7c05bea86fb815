package bundler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strconv"
	"strings"
)

// Hash computes a stable hash of every compile-affecting field. Two configs
// hash equal exactly when a compilation could not tell them apart, so the
// hash doubles as the cache key for resolved stage configurations. Map
// fields are written in sorted key order; list fields are order-sensitive
// because rule and plugin order affects the compilation.
func (c *Config) Hash() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) { h.Write([]byte(strings.Join(parts, "="))); h.Write([]byte{0}) }

	w("mode", string(c.Mode))
	w("devtool", c.Devtool)

	for _, k := range sortedKeys(c.Entries) {
		w("entries."+k, c.Entries[k])
	}

	w("output.dir", c.Output.Dir)
	w("output.public_path", c.Output.PublicPath)
	w("output.filename", c.Output.Filename)

	for i, rule := range c.Module.Rules {
		prefix := "module.rules[" + strconv.Itoa(i) + "]"
		w(prefix+".test", rule.Test)
		w(prefix+".include", strings.Join(rule.Include, ","))
		w(prefix+".exclude", strings.Join(rule.Exclude, ","))
		for j, use := range rule.Use {
			up := prefix + ".use[" + strconv.Itoa(j) + "]"
			w(up+".loader", use.Loader)
			writeOptions(h, up+".options", use.Options)
		}
	}

	w("resolve.extensions", strings.Join(c.Resolve.Extensions, ","))
	for _, k := range sortedKeys(c.Resolve.Alias) {
		w("resolve.alias."+k, c.Resolve.Alias[k])
	}
	w("resolve.modules", strings.Join(c.Resolve.Modules, ","))

	for i, plugin := range c.Plugins {
		prefix := "plugins[" + strconv.Itoa(i) + "]"
		w(prefix+".name", plugin.Name)
		writeOptions(h, prefix+".options", plugin.Options)
	}

	w("performance.hints", c.Performance.Hints)
	w("performance.max_asset_size", strconv.FormatInt(c.Performance.MaxAssetSize, 10))

	return hex.EncodeToString(h.Sum(nil))
}

// writeOptions hashes a nested options map deterministically.
func writeOptions(h hash.Hash, prefix string, opts map[string]any) {
	for _, k := range sortedKeys(opts) {
		key := prefix + "." + k
		switch v := opts[k].(type) {
		case map[string]any:
			writeOptions(h, key, v)
		default:
			h.Write([]byte(key + "=" + fmt.Sprintf("%v", v)))
			h.Write([]byte{0})
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
