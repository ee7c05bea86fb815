package compile

import (
	"bufio"
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/factory"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// PageResult summarizes one page pass.
type PageResult struct {
	// Rendered lists output-relative paths of written pages, walk order.
	Rendered []string
	// Drafts counts content files skipped because they are marked draft
	// and the configuration compiles in production mode.
	Drafts int
}

// pageData is what the page template sees for one rendered page.
type pageData struct {
	Title     string
	SiteTitle string
	BaseURL   string
	Params    map[string]any
	Body      template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if .Title}}{{.Title}}{{if .SiteTitle}} | {{.SiteTitle}}{{end}}{{else}}{{.SiteTitle}}{{end}}</title>
{{- if .BaseURL}}
<base href="{{.BaseURL}}">
{{- end}}
</head>
<body>
<main>
{{.Body}}</main>
</body>
</html>
`))

// Pages runs the page pass: walk contentDir for Markdown routed through the
// markdown loader, render via goldmark honoring the loader options, and
// write each page as <slug>/index.html under outDir. A top-level index.md
// becomes index.html directly. Draft pages are skipped in production mode.
func Pages(ctx context.Context, contentDir, outDir string, cfg bundler.Config) (PageResult, error) {
	var result PageResult

	rules, err := compileRules(cfg.Module.Rules)
	if err != nil {
		return result, err
	}
	if _, err := os.Stat(contentDir); os.IsNotExist(err) {
		slog.Debug("No content directory, skipping page pass", logfields.Path(contentDir))
		return result, nil
	}

	md := newMarkdown(configLoaderOptions(cfg, factory.LoaderMarkdown))
	defines := defineValues(cfg)
	skipDrafts := cfg.Mode == bundler.ModeProduction

	prefix := filepath.Base(contentDir)
	walkErr := filepath.WalkDir(contentDir, func(p string, d fs.DirEntry, err error) error {
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

		rel, err := filepath.Rel(contentDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		matches := matchingRules(rules, path.Join(prefix, rel))
		if !usesLoader(matches, factory.LoaderMarkdown) {
			return nil
		}

		raw, err := os.ReadFile(p)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "read content file").
				WithContext("path", p).Build()
		}
		meta, body, err := frontmatter.Parse(raw)
		if err != nil {
			return errors.WrapError(err, errors.CategoryCompile, "parse frontmatter").
				WithContext("path", rel).Build()
		}
		if meta.Draft && skipDrafts {
			result.Drafts++
			slog.Debug("Skipped draft page", logfields.Path(rel))
			return nil
		}

		var rendered bytes.Buffer
		if err := md.Convert(body, &rendered); err != nil {
			return errors.WrapError(err, errors.CategoryCompile, "render markdown").
				WithContext("path", rel).Build()
		}

		pageRel := pagePath(rel, meta.Slug)
		data := pageData{
			Title:     pageTitle(meta, body, path.Base(rel)),
			SiteTitle: defines["SITE_TITLE"],
			BaseURL:   defines["SITE_BASE_URL"],
			Params:    meta.Params,
			Body:      template.HTML(rendered.String()),
		}
		var page bytes.Buffer
		if err := pageTemplate.Execute(&page, data); err != nil {
			return errors.WrapError(err, errors.CategoryCompile, "execute page template").
				WithContext("path", rel).Build()
		}

		target := filepath.Join(outDir, filepath.FromSlash(pageRel))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create page directory").
				WithContext("path", filepath.Dir(target)).Build()
		}
		if err := os.WriteFile(target, page.Bytes(), 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write page").
				WithContext("path", target).Build()
		}

		result.Rendered = append(result.Rendered, pageRel)
		slog.Debug("Rendered page", logfields.Path(pageRel))
		return nil
	})
	if walkErr != nil {
		return result, walkErr
	}

	slog.Info("Page pass complete",
		slog.Int("rendered", len(result.Rendered)),
		slog.Int("drafts_skipped", result.Drafts))
	return result, nil
}

// newMarkdown assembles the goldmark instance from the markdown loader
// options in effect for this configuration.
func newMarkdown(opts map[string]any) goldmark.Markdown {
	var exts []goldmark.Extender
	if boolOption(opts, "gfm", true) {
		exts = append(exts, extension.GFM)
	}
	if boolOption(opts, "typographer", true) {
		exts = append(exts, extension.Typographer)
	}
	var rOpts []renderer.Option
	if boolOption(opts, "unsafe_html", false) {
		rOpts = append(rOpts, ghtml.WithUnsafe())
	}
	if boolOption(opts, "hard_wraps", false) {
		rOpts = append(rOpts, ghtml.WithHardWraps())
	}
	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(rOpts...),
	)
}

// pagePath maps a content-relative source path to its pretty output path:
// docs/Getting Started.md becomes docs/getting-started/index.html. An
// index.md collapses onto its directory, a frontmatter slug replaces the
// final segment.
func pagePath(rel, slugOverride string) string {
	dir := path.Dir(rel)
	if dir == "." {
		dir = ""
	}
	name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))

	slugDir := SlugifyPath(dir)
	if slugOverride == "" && strings.EqualFold(name, "index") {
		return path.Join(slugDir, "index.html")
	}

	slug := Slugify(name)
	if slugOverride != "" {
		slug = Slugify(slugOverride)
	}
	if slug == "" {
		slug = "untitled"
	}
	return path.Join(slugDir, slug, "index.html")
}

// pageTitle picks the page title: frontmatter wins, then the first Markdown
// heading, then a title-cased filename.
func pageTitle(meta frontmatter.Page, body []byte, base string) string {
	if meta.Title != "" {
		return meta.Title
	}
	if h := firstHeading(body); h != "" {
		return h
	}
	name := strings.TrimSuffix(base, path.Ext(base))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.English).String(name)
}

// firstHeading returns the text of the first level-one heading, skipping
// fenced code blocks.
func firstHeading(body []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(body))
	inFence := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

// defineValues extracts the string values of the define plugin, the site
// metadata the base configuration injects.
func defineValues(cfg bundler.Config) map[string]string {
	out := map[string]string{}
	p, ok := findPlugin(cfg, factory.PluginDefine)
	if !ok {
		return out
	}
	values, ok := p.Options["values"].(map[string]any)
	if !ok {
		return out
	}
	for k, v := range values {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
