package site

import (
	"git.home.luguber.info/inful/docsmith/internal/content"
	"git.home.luguber.info/inful/docsmith/internal/pyscan"
	"git.home.luguber.info/inful/docsmith/internal/workspace"
)

// BuildState carries mutable state across stages. Each stage reads what
// earlier stages produced and adds its own results.
type BuildState struct {
	Generator *Generator
	Report    *BuildReport

	// SourcePaths is the module search path: configured paths first, then
	// fetched checkouts in configuration order.
	SourcePaths []string

	// Scan results.
	Modules  []*pyscan.Module
	Failures []pyscan.ImportFailure

	// Extracted documentation keyed by module name. Failed modules get stub
	// entries so their pages and navigation slots survive.
	ModuleDocs map[string]*ModuleDoc

	// Validated content declaration.
	Tree *content.Tree

	// Assembled render model.
	Site *Site

	// Ephemeral checkout workspace, cleaned up when the build ends.
	workspace *workspace.Manager
}

func newBuildState(g *Generator, report *BuildReport) *BuildState {
	return &BuildState{
		Generator:  g,
		Report:     report,
		ModuleDocs: make(map[string]*ModuleDoc),
	}
}
