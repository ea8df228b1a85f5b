package site

import (
	"html/template"
	"time"
)

// Site is the fully assembled, render-ready model of the documentation site.
// It is built once per run and treated as read-only by the renderer.
type Site struct {
	Project   string
	Release   string
	Author    string
	Title     string        // content declaration title, falls back to project name
	Prose     template.HTML // rendered index page prose
	Nav       []NavGroup
	Documents []*Document // one per content node, declaration order
	Index     []IndexLetter
	ModIndex  []ModIndexEntry
	Search    []SearchDoc
	BaseURL   string
	Generated time.Time
}

// NavGroup is one captioned block of the navigation sidebar. Entries keep
// their declaration order; an empty caption renders without a heading.
type NavGroup struct {
	Caption string
	Items   []NavItem
}

// NavItem is a single navigation link.
type NavItem struct {
	Ref   string
	Title string
	Href  string // site-root-relative
}

// DocumentKind selects the template a page renders through.
type DocumentKind string

const (
	DocIndex    DocumentKind = "index"
	DocModule   DocumentKind = "module"
	DocPage     DocumentKind = "page"
	DocGenIndex DocumentKind = "genindex"
	DocModIndex DocumentKind = "modindex"
	DocSearch   DocumentKind = "search"
)

// Document is one HTML page of the site.
type Document struct {
	Kind    DocumentKind
	Ref     string        // content node ref; empty for synthetic pages
	Path    string        // output-relative file path ("lumache.html")
	Title   string
	Module  *ModuleDoc    // module pages only
	Content template.HTML // static pages only
}

// ModuleDoc is the render-ready documentation of one module. A non-empty
// ImportError marks a stub page: the module was configured but could not be
// scanned, and its navigation entry is kept so site structure stays stable.
type ModuleDoc struct {
	Name        string
	Synopsis    string // docstring summary line
	Doc         RenderedDoc
	Members     []MemberDoc
	ImportError string
}

// RenderedDoc carries a parsed docstring with its body already rendered.
type RenderedDoc struct {
	Summary string
	Body    template.HTML
	Params  []ParamDoc
	Returns *ReturnDoc
}

// ParamDoc is one documented parameter ready for display.
type ParamDoc struct {
	Name string
	Type string
	Desc string
}

// ReturnDoc is the documented return value ready for display.
type ReturnDoc struct {
	Type string
	Desc string
}

// MemberDoc is the render-ready documentation of one member. Undocumented
// members still render: signature shown, prose absent.
type MemberDoc struct {
	Kind         string // function|class|method|attribute
	Name         string
	QualName     string // dotted path within the module ("Pantry.add")
	Anchor       string // element id, fully qualified ("lumache.Pantry.add")
	Signature    string // "(code: str, strict: bool = False) -> bool"
	Doc          RenderedDoc
	Undocumented bool
	Members      []MemberDoc // methods and attributes, classes only
}

// IndexLetter groups general index entries under their leading letter.
type IndexLetter struct {
	Letter  string
	Entries []IndexEntry
}

// IndexEntry is one row of the general index.
type IndexEntry struct {
	Name      string // member name
	Qualifier string // containing module (and class) path
	Href      string
	Kind      string
}

// ModIndexEntry is one row of the module index.
type ModIndexEntry struct {
	Name     string
	Href     string
	Synopsis string
	Stub     bool
}

// SearchDoc is one entry of the client-side search index.
type SearchDoc struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Kind  string `json:"kind"`
	Text  string `json:"text"`
}

// PageData is the root object handed to every theme template.
type PageData struct {
	Site *Site
	Doc  *Document
	Root string // relative prefix from this page to the site root ("" or "../"...)
}
