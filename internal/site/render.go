package site

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	cerrors "git.home.luguber.info/inful/docsmith/internal/content/errors"
	"git.home.luguber.info/inful/docsmith/internal/frontmatter"
	"git.home.luguber.info/inful/docsmith/internal/logfields"
	"git.home.luguber.info/inful/docsmith/internal/markdown"
	"git.home.luguber.info/inful/docsmith/internal/site/theme"
)

// templateFor maps a document kind to the theme template that renders it.
var templateFor = map[DocumentKind]string{
	DocIndex:    "index.html",
	DocModule:   "module.html",
	DocPage:     "page.html",
	DocGenIndex: "genindex.html",
	DocModIndex: "modindex.html",
	DocSearch:   "search.html",
}

// renderSite executes the theme templates for every document into the
// staging directory and writes the search index beside them.
func (g *Generator) renderSite(bs *BuildState) error {
	th := theme.Get(g.cfg.Site.Theme)
	if th == nil {
		return fmt.Errorf("%w: unknown theme %q (have: %s)",
			ErrTheme, g.cfg.Site.Theme, strings.Join(theme.Names(), ", "))
	}

	tpl, err := th.Templates()
	if err != nil {
		return fmt.Errorf("%w: theme %s: %w", ErrTheme, th.Name(), err)
	}

	for _, doc := range bs.Site.Documents {
		if doc.Kind == DocPage {
			if err := g.loadPageContent(doc); err != nil {
				return err
			}
		}
	}
	bs.Site.Search = buildSearchIndex(bs.Site)

	for _, doc := range bs.Site.Documents {
		if err := g.renderDocument(tpl, bs.Site, doc); err != nil {
			return err
		}
		bs.Report.RenderedPages++
		slog.Debug("Rendered page", logfields.Page(doc.Path), logfields.Theme(th.Name()))
	}

	if err := g.writeSearchIndex(bs.Site); err != nil {
		return err
	}
	return nil
}

// loadPageContent reads a static page, strips its frontmatter and renders
// the markdown body with cross-page links rewritten to their HTML targets.
func (g *Generator) loadPageContent(doc *Document) error {
	path := filepath.Join(g.cfg.Content.Pages, filepath.FromSlash(doc.Ref)+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", cerrors.ErrPageReadFailed, path, err)
	}

	_, body, _, err := frontmatter.Split(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", cerrors.ErrPageReadFailed, path, err)
	}

	html, err := markdown.Render(body, markdown.Options{RewriteLink: rewriteMarkdownLink})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, path, err)
	}
	doc.Content = template.HTML(html)
	return nil
}

func (g *Generator) renderDocument(tpl *template.Template, s *Site, doc *Document) error {
	name, ok := templateFor[doc.Kind]
	if !ok {
		return fmt.Errorf("%w: no template for document kind %q", ErrRender, doc.Kind)
	}

	var buf bytes.Buffer
	data := PageData{Site: s, Doc: doc, Root: rootPrefix(doc.Path)}
	if err := tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, doc.Path, err)
	}

	out := filepath.Join(g.stageDir, filepath.FromSlash(doc.Path))
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, doc.Path, err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, doc.Path, err)
	}
	return nil
}

// writeSearchIndex emits the client-side search corpus consumed by the
// theme's search page.
func (g *Generator) writeSearchIndex(s *Site) error {
	docs := s.Search
	if docs == nil {
		docs = []SearchDoc{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: search index: %w", ErrRender, err)
	}
	out := filepath.Join(g.stageDir, "search-index.json")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("%w: search index: %w", ErrRender, err)
	}
	return nil
}

// sitemapURLSet is the minimal sitemap.org document.
type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// writeSitemap emits sitemap.xml when a base URL is configured. Without one
// the absolute locations a sitemap requires cannot be formed.
func (g *Generator) writeSitemap(s *Site) error {
	if s.BaseURL == "" {
		slog.Debug("Skipping sitemap, no base_url configured")
		return nil
	}

	base := strings.TrimSuffix(s.BaseURL, "/")
	set := sitemapURLSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
	}
	lastmod := s.Generated.Format("2006-01-02")
	for _, doc := range s.Documents {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     base + "/" + doc.Path,
			LastMod: lastmod,
		})
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: sitemap: %w", ErrRender, err)
	}
	out := filepath.Join(g.stageDir, "sitemap.xml")
	payload := append([]byte(xml.Header), data...)
	if err := os.WriteFile(out, payload, 0o644); err != nil {
		return fmt.Errorf("%w: sitemap: %w", ErrRender, err)
	}
	return nil
}
