package content

import (
	"fmt"
	"os"
	"strings"

	cerrors "git.home.luguber.info/inful/docsmith/internal/content/errors"
)

const directiveToctree = ".. toctree::"

// adornmentRunes are the punctuation characters accepted as heading
// underlines.
const adornmentRunes = `=-~^"'` + "`" + `+#*.:_`

// ParseFile reads and parses a content declaration file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", cerrors.ErrDeclarationReadFailed, path, err)
	}
	return Parse(data, path)
}

// Parse parses declaration text. The grammar is line-oriented: headings are a
// text line underlined with repeated punctuation, toctree directives collect
// indented entries, everything else is index prose.
func Parse(data []byte, path string) (*Document, error) {
	doc := &Document{Path: path}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	var prose []string
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == directiveToctree {
			group, next := parseDirective(lines, i+1)
			doc.Groups = append(doc.Groups, group)
			i = next
			continue
		}

		// A heading is a non-indented text line whose next line is an
		// adornment rule. An underline shorter than its heading is rejected,
		// not demoted to prose.
		if trimmed != "" && !isIndented(line) && i+1 < len(lines) {
			under := strings.TrimRight(lines[i+1], " \t")
			if isAdornment(under) {
				if len(under) < len(trimmed) {
					return nil, fmt.Errorf("%w: %s:%d: underline shorter than heading %q",
						cerrors.ErrMalformedHeading, path, i+1, trimmed)
				}
				if doc.Title == "" {
					doc.Title = trimmed
				} else {
					prose = append(prose, "## "+trimmed, "")
				}
				i += 2
				continue
			}
		}

		prose = append(prose, line)
		i++
	}

	doc.Prose = strings.TrimSpace(strings.Join(prose, "\n"))
	return doc, nil
}

// parseDirective consumes the indented block following a toctree line.
// Recognized options are :caption: and :maxdepth: (the latter tolerated and
// ignored); remaining indented lines are entries. Returns the group and the
// index of the first line after the block.
func parseDirective(lines []string, start int) (Group, int) {
	group := Group{}

	i := start
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			i++
			continue
		}
		if !isIndented(line) {
			break
		}

		if strings.HasPrefix(trimmed, ":") {
			if v, ok := directiveOption(trimmed, "caption"); ok {
				group.Caption = v
			}
			i++
			continue
		}

		ref, title := splitEntry(trimmed)
		group.Entries = append(group.Entries, Entry{Ref: ref, Title: title, Line: i + 1})
		i++
	}

	return group, i
}

// directiveOption extracts the value of a ":name: value" option line.
func directiveOption(line, name string) (string, bool) {
	prefix := ":" + name + ":"
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
}

// splitEntry handles the explicit-title entry form "Display Title <ref>".
func splitEntry(s string) (ref, title string) {
	if strings.HasSuffix(s, ">") {
		if open := strings.LastIndex(s, "<"); open >= 0 {
			ref = strings.TrimSpace(s[open+1 : len(s)-1])
			title = strings.TrimSpace(s[:open])
			if ref != "" {
				return ref, title
			}
		}
	}
	return s, ""
}

func isIndented(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}

// isAdornment reports whether a line is a heading underline: at least two
// repetitions of a single adornment rune.
func isAdornment(s string) bool {
	if len(s) < 2 {
		return false
	}
	runes := []rune(s)
	first := runes[0]
	if !strings.ContainsRune(adornmentRunes, first) {
		return false
	}
	for _, r := range runes[1:] {
		if r != first {
			return false
		}
	}
	return true
}
