package docstring

import "strings"

// googleSections maps recognized Google-style headers to a canonical kind.
// Args, Arguments and Parameters are synonyms.
var googleSections = map[string]string{
	"Args":       "args",
	"Arguments":  "args",
	"Parameters": "args",
	"Returns":    "returns",
	"Yields":     "other",
	"Raises":     "other",
	"Attributes": "other",
	"Note":       "other",
	"Notes":      "other",
	"Example":    "other",
	"Examples":   "other",
}

// parseGoogle parses a Google-style block: "Args:"/"Returns:" headers with
// indented entries. Reports false when no recognized header is present.
func parseGoogle(doc string) (Parsed, bool) {
	lines := strings.Split(doc, "\n")

	type marker struct {
		kind   string
		header int
	}
	var marks []marker
	for i, line := range lines {
		if indentOf(line) != 0 {
			continue
		}
		trimmed := strings.TrimSpace(line)
		name, ok := strings.CutSuffix(trimmed, ":")
		if !ok {
			continue
		}
		kind, known := googleSections[name]
		if !known {
			continue
		}
		marks = append(marks, marker{kind: kind, header: i})
	}
	if len(marks) == 0 {
		return Parsed{}, false
	}

	parsed := Parsed{Dialect: DialectGoogle}
	preamble := strings.Join(lines[:marks[0].header], "\n")
	parsed.Summary, parsed.Body = splitSummary(preamble)

	var extras []string
	for i, m := range marks {
		end := len(lines)
		if i+1 < len(marks) {
			end = marks[i+1].header
		}
		content := lines[m.header+1 : end]

		switch m.kind {
		case "args":
			parsed.Params = parseGoogleArgs(content)
		case "returns":
			parsed.Returns = parseGoogleReturns(content)
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

// parseGoogleArgs parses entries of the form "name (type): description" with
// deeper-indented continuation lines.
func parseGoogleArgs(lines []string) []ParamDoc {
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
		if indent > base {
			if cur != nil {
				desc = append(desc, trimmed)
			}
			continue
		}

		colon := strings.Index(trimmed, ":")
		if colon < 0 {
			if cur != nil {
				desc = append(desc, trimmed)
			}
			continue
		}

		flush()
		head := strings.TrimSpace(trimmed[:colon])
		rest := strings.TrimSpace(trimmed[colon+1:])

		name, typ := head, ""
		if open := strings.Index(head, "("); open >= 0 && strings.HasSuffix(head, ")") {
			name = strings.TrimSpace(head[:open])
			typ = strings.TrimSpace(head[open+1 : len(head)-1])
		}
		cur = &ParamDoc{Name: name, Type: typ}
		if rest != "" {
			desc = append(desc, rest)
		}
	}
	flush()

	return params
}

// parseGoogleReturns parses "type: description" or plain description lines.
func parseGoogleReturns(lines []string) *ReturnDoc {
	var parts []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return nil
	}

	ret := &ReturnDoc{}
	if colon := strings.Index(parts[0], ":"); colon >= 0 {
		ret.Type = strings.TrimSpace(parts[0][:colon])
		parts[0] = strings.TrimSpace(parts[0][colon+1:])
	}
	ret.Desc = strings.TrimSpace(strings.Join(parts, " "))
	return ret
}
