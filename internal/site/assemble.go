package site

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"unicode"

	"git.home.luguber.info/inful/docsmith/internal/content"
	"git.home.luguber.info/inful/docsmith/internal/docstring"
	"git.home.luguber.info/inful/docsmith/internal/markdown"
	"git.home.luguber.info/inful/docsmith/internal/pyscan"
)

// buildModuleDoc turns a scanned module into its render-ready form: every
// docstring parsed through the enabled dialects and bodies rendered to HTML.
func buildModuleDoc(parser *docstring.Parser, mod *pyscan.Module) (*ModuleDoc, error) {
	doc, err := renderDoc(parser, mod.Doc)
	if err != nil {
		return nil, fmt.Errorf("%w: module %s: %w", ErrExtract, mod.Name, err)
	}

	md := &ModuleDoc{
		Name:     mod.Name,
		Synopsis: doc.Summary,
		Doc:      doc,
	}
	for _, m := range mod.Members {
		member, err := buildMemberDoc(parser, mod.Name, "", m)
		if err != nil {
			return nil, err
		}
		md.Members = append(md.Members, member)
	}
	return md, nil
}

// stubModuleDoc keeps a failed module present in the site: the page renders
// an import notice instead of member documentation, and navigation stays
// stable across the failure.
func stubModuleDoc(failure pyscan.ImportFailure) *ModuleDoc {
	return &ModuleDoc{
		Name:        failure.Module,
		ImportError: failure.Err.Error(),
	}
}

func buildMemberDoc(parser *docstring.Parser, moduleName, parentQual string, m pyscan.Member) (MemberDoc, error) {
	qual := m.Name
	if parentQual != "" {
		qual = parentQual + "." + m.Name
	}

	doc, err := renderDoc(parser, m.Doc)
	if err != nil {
		return MemberDoc{}, fmt.Errorf("%w: %s.%s: %w", ErrExtract, moduleName, qual, err)
	}

	member := MemberDoc{
		Kind:         string(m.Kind),
		Name:         m.Name,
		QualName:     qual,
		Anchor:       moduleName + "." + qual,
		Signature:    formatSignature(m),
		Doc:          doc,
		Undocumented: m.Undocumented(),
	}
	for _, child := range m.Members {
		sub, err := buildMemberDoc(parser, moduleName, qual, child)
		if err != nil {
			return MemberDoc{}, err
		}
		member.Members = append(member.Members, sub)
	}
	return member, nil
}

// renderDoc parses one docstring and renders its body to HTML. Parameter and
// return descriptions stay plain text; templates escape them on output.
func renderDoc(parser *docstring.Parser, raw string) (RenderedDoc, error) {
	parsed := parser.Parse(raw)

	doc := RenderedDoc{Summary: parsed.Summary}
	if parsed.Body != "" {
		html, err := markdown.Render([]byte(parsed.Body), markdown.Options{})
		if err != nil {
			return RenderedDoc{}, err
		}
		doc.Body = template.HTML(html)
	}
	for _, p := range parsed.Params {
		doc.Params = append(doc.Params, ParamDoc{Name: p.Name, Type: p.Type, Desc: p.Desc})
	}
	if parsed.Returns != nil {
		doc.Returns = &ReturnDoc{Type: parsed.Returns.Type, Desc: parsed.Returns.Desc}
	}
	return doc, nil
}

// formatSignature renders a member's declaration for display. Attributes
// show their annotation; callables show parameters and the return annotation.
func formatSignature(m pyscan.Member) string {
	if m.Kind == pyscan.KindAttribute {
		if m.Returns != "" {
			return ": " + m.Returns
		}
		return ""
	}

	parts := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		s := p.Name
		switch {
		case p.Annotation != "" && p.Default != "":
			s += ": " + p.Annotation + " = " + p.Default
		case p.Annotation != "":
			s += ": " + p.Annotation
		case p.Default != "":
			s += "=" + p.Default
		}
		parts = append(parts, s)
	}
	sig := "(" + strings.Join(parts, ", ") + ")"
	if m.Returns != "" {
		sig += " -> " + m.Returns
	}
	return sig
}

// assembleSite composes the final render model from the validated tree and
// the extracted module docs. Node order is declaration order throughout; only
// the indexes impose their own (alphabetical) order.
func (g *Generator) assembleSite(bs *BuildState) (*Site, error) {
	tree := bs.Tree

	prose, err := markdown.Render([]byte(tree.Prose), markdown.Options{RewriteLink: rewriteMarkdownLink})
	if err != nil {
		return nil, fmt.Errorf("%w: index prose: %w", ErrRender, err)
	}

	title := tree.Title
	if title == "" {
		title = g.cfg.Project.Name
	}

	s := &Site{
		Project:   g.cfg.Project.Name,
		Release:   g.cfg.Project.Release,
		Author:    g.cfg.Project.Author,
		Title:     title,
		Prose:     template.HTML(prose),
		BaseURL:   g.cfg.Site.BaseURL,
		Generated: g.now(),
	}

	s.Nav = buildNav(tree)

	s.Documents = append(s.Documents, &Document{
		Kind:  DocIndex,
		Path:  "index.html",
		Title: title,
	})
	for i := range tree.Nodes {
		node := &tree.Nodes[i]
		doc := &Document{
			Ref:   node.Ref,
			Path:  nodePath(node),
			Title: node.Title,
		}
		switch node.Kind {
		case content.KindModule:
			doc.Kind = DocModule
			md, ok := bs.ModuleDocs[node.Ref]
			if !ok {
				return nil, fmt.Errorf("%w: no extracted documentation for module %q", ErrExtract, node.Ref)
			}
			doc.Module = md
		case content.KindPage:
			doc.Kind = DocPage
		}
		s.Documents = append(s.Documents, doc)
	}
	s.Documents = append(s.Documents,
		&Document{Kind: DocGenIndex, Path: "genindex.html", Title: "Index"},
		&Document{Kind: DocModIndex, Path: "py-modindex.html", Title: "Module Index"},
		&Document{Kind: DocSearch, Path: "search.html", Title: "Search"},
	)

	s.Index = buildGenIndex(tree, bs.ModuleDocs)
	s.ModIndex = buildModIndex(tree, bs.ModuleDocs)

	return s, nil
}

// nodePath maps a content node to its output file. Page refs may carry
// directory separators; module names use dots and stay flat.
func nodePath(node *content.Node) string {
	return node.Ref + ".html"
}

// rootPrefix returns the relative prefix from an output path back to the
// site root ("" at the root, "../" per directory level).
func rootPrefix(path string) string {
	return strings.Repeat("../", strings.Count(path, "/"))
}

// buildNav groups consecutive nodes sharing a caption into sidebar blocks,
// preserving declaration order.
func buildNav(tree *content.Tree) []NavGroup {
	var nav []NavGroup
	for i := range tree.Nodes {
		node := &tree.Nodes[i]
		item := NavItem{Ref: node.Ref, Title: node.Title, Href: nodePath(node)}
		if len(nav) == 0 || nav[len(nav)-1].Caption != node.Caption {
			nav = append(nav, NavGroup{Caption: node.Caption})
		}
		nav[len(nav)-1].Items = append(nav[len(nav)-1].Items, item)
	}
	return nav
}

// buildGenIndex flattens every documented member into an alphabetical index
// grouped by leading letter. Non-letter leaders collect under "Symbols",
// listed first like established documentation generators do.
func buildGenIndex(tree *content.Tree, docs map[string]*ModuleDoc) []IndexLetter {
	var entries []IndexEntry
	for i := range tree.Nodes {
		node := &tree.Nodes[i]
		if node.Kind != content.KindModule {
			continue
		}
		md := docs[node.Ref]
		if md == nil {
			continue
		}
		page := nodePath(node)
		var walk func(parentQual string, members []MemberDoc)
		walk = func(parentQual string, members []MemberDoc) {
			for _, m := range members {
				qualifier := md.Name
				if parentQual != "" {
					qualifier += "." + parentQual
				}
				entries = append(entries, IndexEntry{
					Name:      m.Name,
					Qualifier: qualifier,
					Href:      page + "#" + m.Anchor,
					Kind:      m.Kind,
				})
				walk(m.QualName, m.Members)
			}
		}
		walk("", md.Members)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
		if a != b {
			return a < b
		}
		return entries[i].Qualifier < entries[j].Qualifier
	})

	var letters []IndexLetter
	for _, e := range entries {
		l := indexLetter(e.Name)
		if len(letters) == 0 || letters[len(letters)-1].Letter != l {
			letters = append(letters, IndexLetter{Letter: l})
		}
		letters[len(letters)-1].Entries = append(letters[len(letters)-1].Entries, e)
	}
	// Symbols sort between uppercase letters lexically; pull the bucket first.
	for i, l := range letters {
		if l.Letter == "Symbols" && i > 0 {
			sym := letters[i]
			copy(letters[1:i+1], letters[0:i])
			letters[0] = sym
			break
		}
	}
	return letters
}

func indexLetter(name string) string {
	for _, r := range name {
		if unicode.IsLetter(r) {
			return string(unicode.ToUpper(r))
		}
		return "Symbols"
	}
	return "Symbols"
}

// buildModIndex lists every module node alphabetically. Stub modules appear
// with their import notice so the index never silently loses an entry.
func buildModIndex(tree *content.Tree, docs map[string]*ModuleDoc) []ModIndexEntry {
	var mods []ModIndexEntry
	for i := range tree.Nodes {
		node := &tree.Nodes[i]
		if node.Kind != content.KindModule {
			continue
		}
		entry := ModIndexEntry{Name: node.Ref, Href: nodePath(node)}
		if md := docs[node.Ref]; md != nil {
			entry.Synopsis = md.Synopsis
			entry.Stub = md.ImportError != ""
		}
		mods = append(mods, entry)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
	return mods
}

// buildSearchIndex collects one search document per page plus one per
// documented member.
func buildSearchIndex(s *Site) []SearchDoc {
	var out []SearchDoc
	for _, doc := range s.Documents {
		switch doc.Kind {
		case DocIndex, DocGenIndex, DocModIndex, DocSearch:
			continue
		case DocModule:
			out = append(out, SearchDoc{
				Title: doc.Module.Name,
				Href:  doc.Path,
				Kind:  "module",
				Text:  doc.Module.Synopsis,
			})
			var walk func(members []MemberDoc)
			walk = func(members []MemberDoc) {
				for _, m := range members {
					out = append(out, SearchDoc{
						Title: doc.Module.Name + "." + m.QualName,
						Href:  doc.Path + "#" + m.Anchor,
						Kind:  m.Kind,
						Text:  m.Doc.Summary,
					})
					walk(m.Members)
				}
			}
			walk(doc.Module.Members)
		case DocPage:
			out = append(out, SearchDoc{
				Title: doc.Title,
				Href:  doc.Path,
				Kind:  "page",
				Text:  searchExcerpt(string(doc.Content)),
			})
		}
	}
	return out
}

// searchExcerpt reduces rendered HTML to a short plain-text snippet.
func searchExcerpt(html string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			sb.WriteRune(' ')
		case !inTag:
			sb.WriteRune(r)
		}
	}
	text := strings.Join(strings.Fields(sb.String()), " ")
	const max = 200
	if len(text) > max {
		text = text[:max]
	}
	return text
}

// rewriteMarkdownLink maps authored cross-page links onto rendered output:
// relative .md targets become .html, everything else passes through.
func rewriteMarkdownLink(dest string) string {
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "//") {
		return dest
	}
	target, frag, _ := strings.Cut(dest, "#")
	if strings.HasSuffix(target, ".md") {
		target = strings.TrimSuffix(target, ".md") + ".html"
	}
	if frag != "" {
		return target + "#" + frag
	}
	return target
}
