// Package plain is a single-column theme with minimal styling and no
// client-side behavior beyond search. It suits small packages where a
// sidebar would outweigh the content.
package plain

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

func mustSub(fsys embed.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Theme renders every document into one centered column.
type Theme struct{}

func (Theme) Name() string { return "plain" }

func (Theme) Templates() (*template.Template, error) {
	return template.ParseFS(templates, "templates/*.html")
}

func (Theme) Static() fs.FS { return staticFS }

func init() {
	theme.Register(Theme{})
}
