package linkcheck

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Issue describes one broken internal link.
type Issue struct {
	File   string // site-relative path of the page containing the link
	URL    string // the link as written
	Reason string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.File, i.URL, i.Reason)
}

// Checker verifies that every internal link in a rendered site resolves to a
// file in the output tree, and that fragment targets exist on the linked page.
type Checker struct {
	root string
}

// NewChecker creates a checker for the site rooted at root.
func NewChecker(root string) *Checker {
	return &Checker{root: root}
}

// Check parses every HTML file under the root and verifies internal links.
// Files are visited in lexical order so issues come out deterministically.
func (c *Checker) Check(ctx context.Context) ([]Issue, error) {
	docs, err := c.parseAll(ctx)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, rel := range sortedKeys(docs) {
		for _, link := range docs[rel].Links {
			if !link.IsInternal {
				continue
			}
			if issue := c.verify(rel, link, docs); issue != nil {
				issues = append(issues, *issue)
			}
		}
	}
	return issues, nil
}

func (c *Checker) parseAll(ctx context.Context) (map[string]*Document, error) {
	docs := make(map[string]*Document)
	err := filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		doc, perr := ParseDocument(f)
		f.Close()
		if perr != nil {
			return fmt.Errorf("parse %s: %w", p, perr)
		}
		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}
		docs[filepath.ToSlash(rel)] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Checker) verify(from string, link Link, docs map[string]*Document) *Issue {
	target, fragment := splitFragment(link.URL)

	// Same-page anchor.
	if target == "" {
		if fragment != "" && !docs[from].Anchors[fragment] {
			return &Issue{File: from, URL: link.URL, Reason: "anchor not found"}
		}
		return nil
	}

	rel := resolve(from, target)
	full := filepath.Join(c.root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil {
		return &Issue{File: from, URL: link.URL, Reason: "target does not exist"}
	}
	if info.IsDir() {
		rel = path.Join(rel, "index.html")
		if _, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(rel))); err != nil {
			return &Issue{File: from, URL: link.URL, Reason: "target does not exist"}
		}
	}

	if fragment != "" {
		if doc, ok := docs[rel]; ok && !doc.Anchors[fragment] {
			return &Issue{File: from, URL: link.URL, Reason: "anchor not found"}
		}
	}
	return nil
}

// resolve turns a link written in from into a site-relative slash path.
func resolve(from, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(path.Dir(from), target)
}

func splitFragment(raw string) (target, fragment string) {
	target = raw
	if i := strings.Index(target, "#"); i >= 0 {
		fragment = target[i+1:]
		target = target[:i]
	}
	if i := strings.Index(target, "?"); i >= 0 {
		target = target[:i]
	}
	return target, fragment
}

func sortedKeys(docs map[string]*Document) []string {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
