// Package markdown renders Markdown bodies to HTML.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Options controls parsing and rendering behavior.
type Options struct {
	// RewriteLink, when set, maps every link and image destination before
	// rendering. Used to point source-relative .md references at their
	// rendered .html counterparts.
	RewriteLink func(string) string
}

// Render converts a Markdown body (frontmatter already removed) to HTML.
func Render(body []byte, opts Options) ([]byte, error) {
	var gmOpts []goldmark.Option
	if opts.RewriteLink != nil {
		gmOpts = append(gmOpts, goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&linkRewriter{rewrite: opts.RewriteLink}, 100),
			),
		))
	}

	md := goldmark.New(gmOpts...)
	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// linkRewriter rewrites link destinations in the parsed AST before the HTML
// renderer runs.
type linkRewriter struct {
	rewrite func(string) string
}

func (r *linkRewriter) Transform(doc *gmast.Document, reader text.Reader, pc parser.Context) {
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			node.Destination = []byte(r.rewrite(string(node.Destination)))
		case *gmast.Image:
			node.Destination = []byte(r.rewrite(string(node.Destination)))
		}
		return gmast.WalkContinue, nil
	})
}

