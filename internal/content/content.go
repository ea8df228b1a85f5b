// Package content parses the user-authored content declaration and validates
// it into the ordered inclusion list that drives rendering. Ordering is
// significant and user-controlled: declaration order is render order.
package content

// NodeKind classifies what a content node references.
type NodeKind string

const (
	// KindModule marks a generated reference page for a scanned module.
	KindModule NodeKind = "module"
	// KindPage marks a user-authored static page.
	KindPage NodeKind = "page"
)

// Node is one entry in the validated inclusion list.
type Node struct {
	Ref     string   // module name or page stem
	Kind    NodeKind
	Title   string   // display title used in navigation
	Caption string   // group caption, empty for uncaptioned entries
	Line    int      // declaration line, for reporting
}

// Tree is the validated, ordered inclusion list plus the index page content.
// Nodes stay flat; captions provide the single optional nesting level.
type Tree struct {
	Title string
	Prose string // markdown body of the index page
	Nodes []Node
}

// Document is the parsed but not yet validated declaration file.
type Document struct {
	Path   string
	Title  string
	Prose  string
	Groups []Group
}

// Group is one toctree directive block.
type Group struct {
	Caption string
	Entries []Entry
}

// Entry is one declared reference inside a directive block.
type Entry struct {
	Ref   string
	Title string // explicit "Title <ref>" override, empty otherwise
	Line  int
}
