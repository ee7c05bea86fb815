package bundler

// Merge combines a fragment into a base configuration and returns the result.
// Neither input is mutated.
//
// Merge rules:
//   - Lists (module rules, plugins, resolve extensions and modules) are
//     concatenated base-first. Order is preserved and duplicates are kept;
//     callers that contribute the same entry twice get it twice.
//   - Maps (entries, resolve aliases) are merged key-wise with fragment
//     values overriding base values.
//   - Scalars are overridden only when the fragment defines them (non-zero).
func Merge(base, fragment Config) Config {
	out := base.Clone()

	if fragment.Mode != "" {
		out.Mode = fragment.Mode
	}
	if fragment.Devtool != "" {
		out.Devtool = fragment.Devtool
	}
	out.Entries = mergeStringMap(out.Entries, fragment.Entries)

	if fragment.Output.Dir != "" {
		out.Output.Dir = fragment.Output.Dir
	}
	if fragment.Output.PublicPath != "" {
		out.Output.PublicPath = fragment.Output.PublicPath
	}
	if fragment.Output.Filename != "" {
		out.Output.Filename = fragment.Output.Filename
	}

	out.Module.Rules = append(out.Module.Rules, cloneRules(fragment.Module.Rules)...)

	out.Resolve.Extensions = appendStrings(out.Resolve.Extensions, fragment.Resolve.Extensions)
	out.Resolve.Alias = mergeStringMap(out.Resolve.Alias, fragment.Resolve.Alias)
	out.Resolve.Modules = appendStrings(out.Resolve.Modules, fragment.Resolve.Modules)

	out.Plugins = append(out.Plugins, ClonePlugins(fragment.Plugins)...)

	if fragment.Performance.Hints != "" {
		out.Performance.Hints = fragment.Performance.Hints
	}
	if fragment.Performance.MaxAssetSize != 0 {
		out.Performance.MaxAssetSize = fragment.Performance.MaxAssetSize
	}

	return out
}

// MergeOptions deep-merges src into dst (map[string]any).
// - Maps: merged recursively
// - Slices & scalars: replaced.
func MergeOptions(dst, src map[string]any) map[string]any {
	if src == nil {
		return dst
	}
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range src {
		if mv, ok := v.(map[string]any); ok {
			if existing, ok2 := dst[k].(map[string]any); ok2 {
				MergeOptions(existing, mv)
			} else {
				cp := map[string]any{}
				MergeOptions(cp, mv)
				dst[k] = cp
			}
			continue
		}
		dst[k] = cloneOptionValue(v)
	}
	return dst
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func appendStrings(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}
	return append(dst, src...)
}
