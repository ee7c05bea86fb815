package compile

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// refAttrs names the attribute carrying an asset reference per element.
// Anchors are deliberately absent: pages link pages, the manifest holds
// assets.
var refAttrs = map[string]string{
	"img":    "src",
	"script": "src",
	"link":   "href",
	"source": "src",
	"video":  "src",
	"audio":  "src",
}

// RewriteAssetRefs walks every .html file under root and rewrites asset
// references through the manifest so pages point at fingerprinted names.
// References are tried verbatim, with a leading slash stripped, and with
// publicPath stripped; whichever form hits keeps its original prefix.
// Returns the number of rewritten references.
func RewriteAssetRefs(ctx context.Context, root, publicPath string, manifest map[string]string) (int, error) {
	if len(manifest) == 0 {
		return 0, nil
	}

	total := 0
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "read page").
				WithContext("path", p).Build()
		}
		doc, err := html.Parse(bytes.NewReader(data))
		if err != nil {
			return errors.WrapError(err, errors.CategoryCompile, "parse page").
				WithContext("path", p).Build()
		}

		count := rewriteNode(doc, publicPath, manifest)
		if count == 0 {
			return nil
		}

		var buf bytes.Buffer
		if err := html.Render(&buf, doc); err != nil {
			return errors.WrapError(err, errors.CategoryCompile, "render page").
				WithContext("path", p).Build()
		}
		tmp := p + ".tmp"
		if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write page").
				WithContext("path", tmp).Build()
		}
		if err := os.Rename(tmp, p); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "persist page").
				WithContext("path", p).Build()
		}

		total += count
		slog.Debug("Rewrote asset references", logfields.Path(p), slog.Int("count", count))
		return nil
	})
	if walkErr != nil {
		return total, walkErr
	}

	slog.Info("Post-process complete", slog.Int("rewritten", total))
	return total, nil
}

func rewriteNode(n *html.Node, publicPath string, manifest map[string]string) int {
	count := 0
	if n.Type == html.ElementNode {
		if attr, ok := refAttrs[n.Data]; ok {
			for i := range n.Attr {
				if n.Attr[i].Key != attr {
					continue
				}
				if rewritten, ok := rewriteRef(n.Attr[i].Val, publicPath, manifest); ok {
					n.Attr[i].Val = rewritten
					count++
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += rewriteNode(c, publicPath, manifest)
	}
	return count
}

// rewriteRef resolves one reference against the manifest. External,
// fragment and data references never match.
func rewriteRef(ref, publicPath string, manifest map[string]string) (string, bool) {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "data:") ||
		strings.HasPrefix(ref, "//") || strings.Contains(ref, "://") {
		return "", false
	}

	prefixes := []string{""}
	if publicPath != "" {
		prefixes = append(prefixes, publicPath)
	}
	prefixes = append(prefixes, "/")

	for _, prefix := range prefixes {
		if prefix != "" && !strings.HasPrefix(ref, prefix) {
			continue
		}
		key := strings.TrimPrefix(ref, prefix)
		emitted, ok := manifest[key]
		if !ok || emitted == key {
			continue
		}
		return prefix + emitted, true
	}
	return "", false
}
