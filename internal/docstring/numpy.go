package docstring

import "strings"

// numpySections are the recognized numpydoc section headers. Only Parameters
// and Returns are parsed structurally; the rest are preserved verbatim in the
// body so no documentation is lost.
var numpySections = map[string]bool{
	"Parameters":       true,
	"Returns":          true,
	"Yields":           true,
	"Raises":           true,
	"Attributes":       true,
	"Notes":            true,
	"Examples":         true,
	"See Also":         true,
	"References":       true,
	"Warnings":         true,
	"Other Parameters": true,
}

// parseNumpy parses a numpydoc-style block: section headers underlined with
// dashes. Reports false when no recognized section is present.
func parseNumpy(doc string) (Parsed, bool) {
	lines := strings.Split(doc, "\n")

	type marker struct {
		name   string
		header int
	}
	var marks []marker
	for i := 0; i+1 < len(lines); i++ {
		name := strings.TrimSpace(lines[i])
		if name == "" || !numpySections[name] {
			continue
		}
		if !isDashRule(strings.TrimSpace(lines[i+1])) {
			continue
		}
		marks = append(marks, marker{name: name, header: i})
	}
	if len(marks) == 0 {
		return Parsed{}, false
	}

	parsed := Parsed{Dialect: DialectNumpy}
	preamble := strings.Join(lines[:marks[0].header], "\n")
	parsed.Summary, parsed.Body = splitSummary(preamble)

	var extras []string
	for i, m := range marks {
		end := len(lines)
		if i+1 < len(marks) {
			end = marks[i+1].header
		}
		content := lines[m.header+2 : end]

		switch m.name {
		case "Parameters":
			parsed.Params = parseNumpyParams(content)
		case "Returns":
			parsed.Returns = parseNumpyReturns(content)
		default:
			section := strings.TrimRight(strings.Join(lines[m.header:end], "\n"), "\n \t")
			extras = append(extras, section)
		}
	}

	if len(extras) > 0 {
		if parsed.Body != "" {
			parsed.Body += "\n\n"
		}
		parsed.Body += strings.Join(extras, "\n\n")
	}

	return parsed, true
}

// isDashRule reports whether a line is a numpydoc section underline.
func isDashRule(s string) bool {
	if len(s) < 3 {
		return false
	}
	for _, r := range s {
		if r != '-' {
			return false
		}
	}
	return true
}

// parseNumpyParams parses entries of the form "name : type" with indented
// description lines.
func parseNumpyParams(lines []string) []ParamDoc {
	var params []ParamDoc
	base := -1
	var cur *ParamDoc
	var desc []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.Desc = strings.Join(desc, " ")
		params = append(params, *cur)
		cur = nil
		desc = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := indentOf(line)
		if base < 0 {
			base = indent
		}
		if indent <= base {
			flush()
			name, typ := splitNameType(trimmed)
			cur = &ParamDoc{Name: name, Type: typ}
		} else if cur != nil {
			desc = append(desc, trimmed)
		}
	}
	flush()

	return params
}

// parseNumpyReturns parses the first Returns entry: a type line (optionally
// "name : type") with an indented description.
func parseNumpyReturns(lines []string) *ReturnDoc {
	ret := &ReturnDoc{}
	base := -1
	seen := false
	var desc []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := indentOf(line)
		if base < 0 {
			base = indent
		}
		if indent <= base {
			if seen {
				break // only the first return entry is documented
			}
			seen = true
			name, typ := splitNameType(trimmed)
			if typ != "" {
				ret.Type = typ
			} else {
				ret.Type = name
			}
		} else if seen {
			desc = append(desc, trimmed)
		}
	}
	if !seen {
		return nil
	}

	ret.Desc = strings.Join(desc, " ")
	return ret
}
