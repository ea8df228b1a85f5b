package pyscan

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	serrors "git.home.luguber.info/inful/docsmith/internal/pyscan/errors"
)

// parseModuleFile parses a single source file into a Module. The parse is
// static; the module is never imported by a runtime.
func parseModuleFile(ctx context.Context, name, path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", serrors.ErrSourceReadFailed, path, err)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", serrors.ErrParseFailed, path, err)
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w: %s: syntax error", serrors.ErrParseFailed, path)
	}

	return &Module{
		Name:    name,
		Path:    path,
		Doc:     blockDocstring(root, src),
		Members: extractMembers(root, src, false),
	}, nil
}

// extractMembers collects the documentable members of a module root or class
// body, in declaration order. Private names (leading underscore) are skipped,
// with __init__ kept inside classes so class signatures stay complete.
func extractMembers(container *sitter.Node, src []byte, inClass bool) []Member {
	var members []Member

	count := int(container.NamedChildCount())
	for i := 0; i < count; i++ {
		node := container.NamedChild(i)
		if node.Type() == "decorated_definition" {
			if def := node.ChildByFieldName("definition"); def != nil {
				node = def
			}
		}

		switch node.Type() {
		case "function_definition":
			m, ok := extractFunction(node, src, inClass)
			if ok {
				members = append(members, m)
			}
		case "class_definition":
			if inClass {
				continue // nested classes are not documented
			}
			m, ok := extractClass(node, src)
			if ok {
				members = append(members, m)
			}
		case "expression_statement":
			m, ok := extractAttribute(node, src, namedSibling(container, i+1))
			if ok {
				members = append(members, m)
			}
		}
	}

	return members
}

func isPrivate(name string) bool {
	return strings.HasPrefix(name, "_")
}

func namedSibling(container *sitter.Node, idx int) *sitter.Node {
	if idx >= int(container.NamedChildCount()) {
		return nil
	}
	return container.NamedChild(idx)
}

func extractFunction(node *sitter.Node, src []byte, inClass bool) (Member, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return Member{}, false
	}
	name := nameNode.Content(src)
	if isPrivate(name) && !(inClass && name == "__init__") {
		return Member{}, false
	}

	kind := KindFunction
	if inClass {
		kind = KindMethod
	}

	m := Member{
		Kind: kind,
		Name: name,
		Line: int(node.StartPoint().Row) + 1,
		Doc:  blockDocstring(node.ChildByFieldName("body"), src),
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		m.Params = extractParams(params, src)
	}
	if inClass && len(m.Params) > 0 && (m.Params[0].Name == "self" || m.Params[0].Name == "cls") {
		m.Params = m.Params[1:]
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		m.Returns = ret.Content(src)
	}

	return m, true
}

func extractClass(node *sitter.Node, src []byte) (Member, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return Member{}, false
	}
	name := nameNode.Content(src)
	if isPrivate(name) {
		return Member{}, false
	}

	m := Member{
		Kind: KindClass,
		Name: name,
		Line: int(node.StartPoint().Row) + 1,
	}

	body := node.ChildByFieldName("body")
	if body != nil {
		m.Doc = blockDocstring(body, src)
		m.Members = extractMembers(body, src, true)
	}

	// The class signature mirrors its constructor.
	for _, sub := range m.Members {
		if sub.Name == "__init__" {
			m.Params = sub.Params
			break
		}
	}

	return m, true
}

// extractAttribute handles simple assignments like TIMEOUT: int = 30. A bare
// string expression immediately following the assignment is taken as its
// documentation.
func extractAttribute(node *sitter.Node, src []byte, next *sitter.Node) (Member, bool) {
	if node.NamedChildCount() == 0 {
		return Member{}, false
	}
	assign := node.NamedChild(0)
	if assign.Type() != "assignment" {
		return Member{}, false
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return Member{}, false
	}
	name := left.Content(src)
	if isPrivate(name) {
		return Member{}, false
	}

	m := Member{
		Kind: KindAttribute,
		Name: name,
		Line: int(node.StartPoint().Row) + 1,
	}
	if t := assign.ChildByFieldName("type"); t != nil {
		m.Returns = t.Content(src)
	}
	if next != nil && next.Type() == "expression_statement" && next.NamedChildCount() > 0 {
		if str := next.NamedChild(0); str.Type() == "string" {
			m.Doc = cleandoc(stripQuotes(str.Content(src)))
		}
	}

	return m, true
}

func extractParams(params *sitter.Node, src []byte) []Param {
	var out []Param

	count := int(params.NamedChildCount())
	for i := 0; i < count; i++ {
		child := params.NamedChild(i)
		var p Param

		switch child.Type() {
		case "identifier":
			p.Name = child.Content(src)
		case "typed_parameter":
			if pattern := child.NamedChild(0); pattern != nil {
				p.Name = pattern.Content(src)
			}
			if t := child.ChildByFieldName("type"); t != nil {
				p.Annotation = t.Content(src)
			}
		case "default_parameter":
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = n.Content(src)
			}
			if v := child.ChildByFieldName("value"); v != nil {
				p.Default = v.Content(src)
			}
		case "typed_default_parameter":
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = n.Content(src)
			}
			if t := child.ChildByFieldName("type"); t != nil {
				p.Annotation = t.Content(src)
			}
			if v := child.ChildByFieldName("value"); v != nil {
				p.Default = v.Content(src)
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			p.Name = child.Content(src)
		default:
			continue // positional and keyword separators
		}

		if p.Name != "" {
			out = append(out, p)
		}
	}

	return out
}

// blockDocstring returns the cleaned docstring of a module root or body
// block: a string expression appearing as the first statement.
func blockDocstring(body *sitter.Node, src []byte) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return cleandoc(stripQuotes(str.Content(src)))
}

// stripQuotes removes string literal delimiters and any prefix letters
// (r, b, u, f) from the raw literal text.
func stripQuotes(raw string) string {
	s := raw
	for len(s) > 0 && s[0] != '"' && s[0] != '\'' {
		s = s[1:]
	}
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// cleandoc normalizes docstring indentation: the common leading whitespace
// of all lines after the first is removed, and surrounding blank lines are
// trimmed.
func cleandoc(doc string) string {
	lines := strings.Split(doc, "\n")
	if len(lines) == 0 {
		return ""
	}

	margin := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	out := make([]string, 0, len(lines))
	out = append(out, strings.TrimSpace(lines[0]))
	for _, line := range lines[1:] {
		if margin > 0 && len(line) >= margin {
			line = line[margin:]
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}

	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}

	return strings.Join(out, "\n")
}
