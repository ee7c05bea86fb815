package compile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/factory"
)

// pageConfig routes markdown under content/ through the markdown and html
// loaders. The typographer stays off so assertions see plain quotes.
func pageConfig(mode bundler.Mode) bundler.Config {
	return bundler.Config{
		Mode: mode,
		Module: bundler.Module{Rules: []bundler.Rule{
			{
				Test:    `\.md$`,
				Include: []string{"content"},
				Use: []bundler.LoaderUse{
					{Loader: factory.LoaderMarkdown, Options: map[string]any{
						"gfm":         true,
						"typographer": false,
						"unsafe_html": false,
						"hard_wraps":  false,
					}},
					{Loader: factory.LoaderHTML},
				},
			},
		}},
		Plugins: []bundler.PluginRef{
			{Name: factory.PluginDefine, Options: map[string]any{"values": map[string]any{
				"SITE_TITLE":    "Docs",
				"SITE_BASE_URL": "https://docs.example.com/",
			}}},
		},
	}
}

func renderPages(t *testing.T, cfg bundler.Config, files map[string]string) (PageResult, string) {
	t.Helper()
	tmp := t.TempDir()
	content := filepath.Join(tmp, "content")
	out := filepath.Join(tmp, "public")
	for rel, body := range files {
		writeFileUnder(t, content, rel, body)
	}
	result, err := Pages(context.Background(), content, out, cfg)
	require.NoError(t, err)
	return result, out
}

func readPage(t *testing.T, out, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestPages_RendersPrettyURLs(t *testing.T) {
	result, out := renderPages(t, pageConfig(bundler.ModeDevelopment), map[string]string{
		"docs/Getting Started.md": "# Getting Started\n\nWelcome.\n",
	})

	require.Equal(t, []string{"docs/getting-started/index.html"}, result.Rendered)

	page := readPage(t, out, "docs/getting-started/index.html")
	require.Contains(t, page, "<h1>Getting Started</h1>")
	require.Contains(t, page, "<title>Getting Started | Docs</title>")
	require.Contains(t, page, `<base href="https://docs.example.com/">`)
}

func TestPages_IndexCollapsesOntoDirectory(t *testing.T) {
	result, out := renderPages(t, pageConfig(bundler.ModeDevelopment), map[string]string{
		"index.md":      "# Home\n",
		"docs/index.md": "# Docs Home\n",
	})

	require.ElementsMatch(t, []string{"index.html", "docs/index.html"}, result.Rendered)
	require.Contains(t, readPage(t, out, "index.html"), "<h1>Home</h1>")
	require.Contains(t, readPage(t, out, "docs/index.html"), "<h1>Docs Home</h1>")
}

func TestPages_FrontmatterTitleAndSlug(t *testing.T) {
	result, out := renderPages(t, pageConfig(bundler.ModeDevelopment), map[string]string{
		"docs/setup.md": "---\ntitle: Custom Title\nslug: start\n---\n# Ignored Heading\n",
	})

	require.Equal(t, []string{"docs/start/index.html"}, result.Rendered)
	require.Contains(t, readPage(t, out, "docs/start/index.html"), "<title>Custom Title | Docs</title>")
}

func TestPages_DraftsSkippedInProduction(t *testing.T) {
	files := map[string]string{
		"wip.md": "---\ndraft: true\n---\n# Not Yet\n",
	}

	result, out := renderPages(t, pageConfig(bundler.ModeProduction), files)
	require.Empty(t, result.Rendered)
	require.Equal(t, 1, result.Drafts)
	require.NoDirExists(t, filepath.Join(out, "wip"))

	result, _ = renderPages(t, pageConfig(bundler.ModeDevelopment), files)
	require.Equal(t, []string{"wip/index.html"}, result.Rendered)
	require.Zero(t, result.Drafts)
}

func TestPages_UnsafeHTMLOption(t *testing.T) {
	files := map[string]string{
		"embed.md": "# Embed\n\n<div class=\"widget\">raw</div>\n",
	}

	_, out := renderPages(t, pageConfig(bundler.ModeDevelopment), files)
	require.NotContains(t, readPage(t, out, "embed/index.html"), `<div class="widget">`)

	cfg := pageConfig(bundler.ModeDevelopment)
	cfg.Module.Rules[0].Use[0].Options["unsafe_html"] = true
	_, out = renderPages(t, cfg, files)
	require.Contains(t, readPage(t, out, "embed/index.html"), `<div class="widget">`)
}

func TestPages_GFMTables(t *testing.T) {
	_, out := renderPages(t, pageConfig(bundler.ModeDevelopment), map[string]string{
		"table.md": "# Table\n\n| a | b |\n| - | - |\n| 1 | 2 |\n",
	})

	require.Contains(t, readPage(t, out, "table/index.html"), "<table>")
}

func TestPages_TitleFallsBackToFilename(t *testing.T) {
	_, out := renderPages(t, pageConfig(bundler.ModeDevelopment), map[string]string{
		"release-notes.md": "no heading here\n",
	})

	require.Contains(t, readPage(t, out, "release-notes/index.html"), "<title>Release Notes | Docs</title>")
}

func TestPages_MissingContentDirIsNoop(t *testing.T) {
	tmp := t.TempDir()

	result, err := Pages(context.Background(), filepath.Join(tmp, "missing"), filepath.Join(tmp, "public"), pageConfig(bundler.ModeDevelopment))
	require.NoError(t, err)
	require.Empty(t, result.Rendered)
}

func TestPagePath(t *testing.T) {
	cases := []struct {
		rel  string
		slug string
		want string
	}{
		{"docs/Getting Started.md", "", "docs/getting-started/index.html"},
		{"index.md", "", "index.html"},
		{"docs/index.md", "", "docs/index.html"},
		{"a.md", "Custom Slug", "custom-slug/index.html"},
		{"weird/!!!.md", "", "weird/untitled/index.html"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, pagePath(tc.rel, tc.slug), "pagePath(%q, %q)", tc.rel, tc.slug)
	}
}

func TestFirstHeading(t *testing.T) {
	require.Equal(t, "Top", firstHeading([]byte("intro text\n\n# Top\n")))
	require.Equal(t, "", firstHeading([]byte("no heading\n")))
	require.Equal(t, "Real", firstHeading([]byte("```\n# in fence\n```\n# Real\n")))
}
