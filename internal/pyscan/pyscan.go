// Package pyscan resolves Python modules from configured search paths and
// scans their source for documentable members. Scanning is purely static:
// modules are parsed, never executed.
package pyscan

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docsmith/internal/logfields"
)

// MemberKind classifies a scanned member.
type MemberKind string

const (
	KindFunction  MemberKind = "function"
	KindClass     MemberKind = "class"
	KindMethod    MemberKind = "method"
	KindAttribute MemberKind = "attribute"
)

// Param is one declared parameter of a function or method.
type Param struct {
	Name       string
	Annotation string // type annotation text, empty when undeclared
	Default    string // default value text, empty when required
}

// Member is a function, class, method or attribute discovered in a module.
// Doc holds the raw docstring text; an empty Doc marks the member
// undocumented, which is valid and still rendered.
type Member struct {
	Kind    MemberKind
	Name    string
	Params  []Param
	Returns string // return annotation text
	Doc     string
	Line    int
	Members []Member // methods and attributes, classes only
}

// Undocumented reports whether the member carries no docstring.
func (m *Member) Undocumented() bool {
	return m.Doc == ""
}

// Module is a scanned unit of source code. Loaded once at scan time and
// read-only thereafter.
type Module struct {
	Name    string
	Path    string // resolved source file
	Doc     string // raw module docstring
	Members []Member
}

// ImportFailure records a module that could not be scanned. Import failures
// are non-fatal: unrelated modules keep processing and partial results are
// acceptable output.
type ImportFailure struct {
	Module string
	Err    error
}

func (f ImportFailure) Error() string {
	return fmt.Sprintf("import failure: %s: %v", f.Module, f.Err)
}

func (f ImportFailure) Unwrap() error { return f.Err }

// Scanner resolves and scans modules from an ordered list of search paths.
type Scanner struct {
	searchPaths []string
}

// NewScanner creates a scanner over the given search paths. Paths are
// consulted in order; the first match wins.
func NewScanner(searchPaths []string) *Scanner {
	return &Scanner{searchPaths: searchPaths}
}

// ScanModule resolves a single module by name and parses its members.
func (s *Scanner) ScanModule(ctx context.Context, name string) (*Module, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}

	mod, err := parseModuleFile(ctx, name, path)
	if err != nil {
		return nil, err
	}

	slog.Debug("scanned module",
		logfields.Module(name),
		logfields.Path(path),
		logfields.Count(len(mod.Members)))
	return mod, nil
}

// ScanAll scans the named modules in order. Modules that fail to resolve or
// parse are reported as ImportFailures without aborting the rest.
func (s *Scanner) ScanAll(ctx context.Context, names []string) ([]*Module, []ImportFailure) {
	var modules []*Module
	var failures []ImportFailure

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			failures = append(failures, ImportFailure{Module: name, Err: err})
			continue
		}

		mod, err := s.ScanModule(ctx, name)
		if err != nil {
			slog.Warn("module scan failed",
				logfields.Module(name),
				logfields.Error(err))
			failures = append(failures, ImportFailure{Module: name, Err: err})
			continue
		}
		modules = append(modules, mod)
	}

	return modules, failures
}
