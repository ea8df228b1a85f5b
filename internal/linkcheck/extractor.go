// Package linkcheck verifies internal links in rendered HTML output. It is
// purely filesystem-based: external URLs are never fetched.
package linkcheck

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL        string // the URL or path
	Text       string // link text or alt text
	Tag        string // HTML tag (a, img, script, link)
	Attribute  string // attribute containing the link (href, src)
	IsInternal bool   // true when the link targets this site
}

// Document is the parse result for one HTML file: its outgoing links and the
// anchor ids it defines.
type Document struct {
	Links   []Link
	Anchors map[string]bool
}

// ParseDocument extracts links and anchor ids from an HTML reader.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{Anchors: make(map[string]bool)}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := getAttr(n, "id"); id != "" {
				doc.Anchors[id] = true
			}
			collectElementLinks(n, doc)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return doc, nil
}

func collectElementLinks(n *html.Node, doc *Document) {
	switch n.Data {
	case "a":
		if href := getAttr(n, "href"); href != "" {
			doc.Links = append(doc.Links, Link{
				URL: href, Text: extractText(n), Tag: "a", Attribute: "href",
				IsInternal: isInternal(href),
			})
		}
		if name := getAttr(n, "name"); name != "" {
			doc.Anchors[name] = true
		}
	case "img":
		if src := getAttr(n, "src"); src != "" {
			doc.Links = append(doc.Links, Link{
				URL: src, Text: getAttr(n, "alt"), Tag: "img", Attribute: "src",
				IsInternal: isInternal(src),
			})
		}
	case "script":
		if src := getAttr(n, "src"); src != "" {
			doc.Links = append(doc.Links, Link{
				URL: src, Tag: "script", Attribute: "src",
				IsInternal: isInternal(src),
			})
		}
	case "link":
		if href := getAttr(n, "href"); href != "" {
			doc.Links = append(doc.Links, Link{
				URL: href, Tag: "link", Attribute: "href",
				IsInternal: isInternal(href),
			})
		}
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// isInternal reports whether a URL targets the generated site itself.
// Scheme-qualified and protocol-relative URLs are external.
func isInternal(raw string) bool {
	if strings.HasPrefix(raw, "//") {
		return false
	}
	if i := strings.Index(raw, ":"); i >= 0 {
		// A scheme prefix (http:, https:, mailto:, tel:) before any slash
		// or fragment marks the link external.
		slash := strings.IndexAny(raw, "/#?")
		if slash < 0 || i < slash {
			return false
		}
	}
	return true
}
