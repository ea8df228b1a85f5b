// Package slate is the default theme: a two-column reference layout with a
// fixed sidebar, grouped navigation and client-side search.
package slate

import (
	"embed"
	"html/template"
	"io/fs"

	"git.home.luguber.info/inful/docsmith/internal/site/theme"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

var staticFS = mustSub(static, "static")

func mustSub(f embed.FS, dir string) fs.FS {
	sub, err := fs.Sub(f, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Theme implements theme.Theme.
type Theme struct{}

func (Theme) Name() string { return "slate" }

func (Theme) Templates() (*template.Template, error) {
	return template.ParseFS(templates, "templates/*.html")
}

func (Theme) Static() fs.FS { return staticFS }

func init() { theme.Register(Theme{}) }
