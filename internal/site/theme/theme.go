// Package theme defines the pluggable visual theme contract and registry.
// Themes are self-contained: they carry their full template set and static
// assets, registered at init time and selected by configuration name.
package theme

import (
	"html/template"
	"io/fs"
	"sort"
	"sync"
)

// Theme provides the rendering surface for a site build.
type Theme interface {
	// Name returns the configuration identifier for this theme.
	Name() string

	// Templates parses and returns the theme's template set. Page templates
	// are executed by file name: index.html, page.html, module.html,
	// modindex.html, genindex.html and search.html. Shared partials are
	// referenced with {{ template }}.
	Templates() (*template.Template, error)

	// Static returns the assets copied verbatim into the site's _static
	// directory.
	Static() fs.FS
}

var (
	regMu sync.RWMutex
	reg   = map[string]Theme{}
)

// Register registers a Theme implementation (idempotent; first registration
// of a name wins).
func Register(t Theme) {
	if t == nil {
		return
	}
	regMu.Lock()
	if _, ok := reg[t.Name()]; !ok {
		reg[t.Name()] = t
	}
	regMu.Unlock()
}

// Get retrieves a theme by name, or nil when unknown.
func Get(name string) Theme {
	regMu.RLock()
	defer regMu.RUnlock()
	return reg[name]
}

// Names returns the registered theme names, sorted. Used for error messages
// when configuration selects an unknown theme.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(reg))
	for n := range reg {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
