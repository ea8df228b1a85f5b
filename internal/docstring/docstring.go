// Package docstring parses structured comment blocks into summary, parameter
// and return sections. Two dialect conventions are recognized; blocks that
// match neither degrade to an opaque summary rather than failing.
package docstring

import (
	"fmt"
	"strings"
)

// Dialect identifies a structured-comment convention.
type Dialect string

const (
	DialectNumpy  Dialect = "numpy"
	DialectGoogle Dialect = "google"

	// DialectOpaque marks a block that matched no recognized convention.
	DialectOpaque Dialect = "opaque"
)

// ParamDoc describes one documented parameter.
type ParamDoc struct {
	Name string
	Type string
	Desc string
}

// ReturnDoc describes the documented return value.
type ReturnDoc struct {
	Type string
	Desc string
}

// Parsed is the structured view of one comment block. Absence of a section
// is valid and yields empty fields.
type Parsed struct {
	Summary string
	Body    string
	Params  []ParamDoc
	Returns *ReturnDoc
	Dialect Dialect
}

// Parser parses comment blocks using an ordered list of enabled dialects.
type Parser struct {
	dialects []Dialect
}

// NewParser builds a parser trying the named dialects in order.
func NewParser(names []string) (*Parser, error) {
	dialects := make([]Dialect, 0, len(names))
	for _, n := range names {
		switch Dialect(n) {
		case DialectNumpy, DialectGoogle:
			dialects = append(dialects, Dialect(n))
		default:
			return nil, fmt.Errorf("unknown docstring dialect: %q", n)
		}
	}
	return &Parser{dialects: dialects}, nil
}

// Parse parses one comment block. This is a best-effort heuristic parse, not
// a strict grammar: malformed section headers fall through to the next
// dialect and finally to opaque-summary treatment.
func (p *Parser) Parse(doc string) Parsed {
	doc = strings.TrimSpace(doc)
	for _, d := range p.dialects {
		switch d {
		case DialectNumpy:
			if parsed, ok := parseNumpy(doc); ok {
				return parsed
			}
		case DialectGoogle:
			if parsed, ok := parseGoogle(doc); ok {
				return parsed
			}
		}
	}

	summary, body := splitSummary(doc)
	return Parsed{Summary: summary, Body: body, Dialect: DialectOpaque}
}

// splitSummary separates the first paragraph from the remaining prose. The
// summary collapses to a single line.
func splitSummary(text string) (summary, body string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		return collapse(text[:idx]), strings.TrimSpace(text[idx+2:])
	}
	return collapse(text), ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// splitNameType divides "name : type" entry lines. Lines without a colon are
// a bare name.
func splitNameType(s string) (name, typ string) {
	if i := strings.Index(s, ":"); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return strings.TrimSpace(s), ""
}
