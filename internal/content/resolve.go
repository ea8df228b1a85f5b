package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	cerrors "git.home.luguber.info/inful/docsmith/internal/content/errors"
	"git.home.luguber.info/inful/docsmith/internal/frontmatter"
)

var titleCaser = cases.Title(language.English)

// Resolve validates every declared entry against the configured modules and
// the static pages directory, producing the ordered inclusion list. All
// broken references are collected and reported together; any at all is fatal.
func Resolve(doc *Document, modules map[string]bool, pagesDir string) (*Tree, error) {
	tree := &Tree{Title: doc.Title, Prose: doc.Prose}

	var broken []error
	for _, group := range doc.Groups {
		for _, entry := range group.Entries {
			node, err := resolveEntry(doc.Path, entry, modules, pagesDir)
			if err != nil {
				broken = append(broken, err)
				continue
			}
			node.Caption = group.Caption
			tree.Nodes = append(tree.Nodes, node)
		}
	}

	if len(broken) > 0 {
		return nil, errors.Join(broken...)
	}
	return tree, nil
}

func resolveEntry(declPath string, entry Entry, modules map[string]bool, pagesDir string) (Node, error) {
	node := Node{Ref: entry.Ref, Title: entry.Title, Line: entry.Line}

	if modules[entry.Ref] {
		node.Kind = KindModule
		if node.Title == "" {
			node.Title = entry.Ref
		}
		return node, nil
	}

	pagePath := filepath.Join(pagesDir, entry.Ref+".md")
	if info, err := os.Stat(pagePath); err == nil && !info.IsDir() {
		node.Kind = KindPage
		if node.Title == "" {
			title, err := pageTitle(pagePath, entry.Ref)
			if err != nil {
				return Node{}, err
			}
			node.Title = title
		}
		return node, nil
	}

	return Node{}, fmt.Errorf("%w: %s:%d: %q is neither a configured module nor a page under %s",
		cerrors.ErrBrokenReference, declPath, entry.Line, entry.Ref, pagesDir)
}

// pageTitle derives a page's display title: frontmatter title wins, then the
// first level-one markdown heading, then the title-cased file stem.
func pageTitle(path, stem string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", cerrors.ErrPageReadFailed, path, err)
	}

	fm, body, had, err := frontmatter.Split(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", cerrors.ErrPageReadFailed, path, err)
	}
	if had {
		fields, err := frontmatter.ParseYAML(fm)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", cerrors.ErrPageReadFailed, path, err)
		}
		if title, ok := frontmatter.Title(fields); ok {
			return title, nil
		}
	}

	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# ")), nil
		}
	}

	words := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return titleCaser.String(words), nil
}
