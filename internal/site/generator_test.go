package site

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"git.home.luguber.info/inful/docsmith/internal/config"
	"git.home.luguber.info/inful/docsmith/internal/metrics"
)

const fixtureModule = `"""Lumache - Python library for cooks and food lovers."""

SHELF_LIFE_DAYS = 14
"""Days an ingredient is considered fresh."""


class InvalidKindError(Exception):
    """Raised if the kind is invalid."""


def get_random_ingredients(kind: str = None) -> list:
    """Return a list of random ingredients.

    Parameters
    ----------
    kind : str
        Optional kind of ingredient.

    Returns
    -------
    list
        The ingredients as strings.
    """
    return ["shells", "gorgonzola", "parsley"]


def undocumented_stub(x, y):
    return x + y
`

const fixtureIndex = `Lumache Documentation
=====================

**Lumache** cooks documentation. See the [usage](usage.md) guide.

.. toctree::
   :caption: Guides

   usage

.. toctree::
   :caption: Reference

   lumache
`

const fixtureUsage = `---
title: Usage
---

# Usage

Install the package, then explore the [lumache](lumache.md) reference.
`

// writeFixtureProject lays out a small documented project under dir and
// returns a configuration pointing at it.
func writeFixtureProject(t *testing.T, dir string) *config.Config {
	t.Helper()

	files := map[string]string{
		"src/lumache.py": fixtureModule,
		"docs/index.txt": fixtureIndex,
		"docs/usage.md":  fixtureUsage,
	}
	for p, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return &config.Config{
		Project: config.ProjectConfig{Name: "Lumache", Author: "Graziella", Release: "0.1.0"},
		Source: config.SourceConfig{
			Paths:    []string{filepath.Join(dir, "src")},
			Modules:  []string{"lumache"},
			Dialects: []string{config.DialectNumpy, config.DialectGoogle},
		},
		Content: config.ContentConfig{
			Root:  filepath.Join(dir, "docs", "index.txt"),
			Pages: filepath.Join(dir, "docs"),
		},
		Site:   config.SiteConfig{Theme: "slate"},
		Output: config.OutputConfig{Directory: filepath.Join(dir, "public")},
	}
}

func rewriteIndex(t *testing.T, cfg *config.Config, content string) {
	t.Helper()
	if err := os.WriteFile(cfg.Content.Root, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readOutput(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Output.Directory, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("output file %s: %v", name, err)
	}
	return string(data)
}

func TestBuildSuccess(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	g := NewGenerator(cfg, cfg.Output.Directory)

	rep, err := g.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if rep.OutcomeT != OutcomeSuccess {
		t.Fatalf("outcome = %q, errors = %v, warnings = %v", rep.Outcome, rep.Errors, rep.Warnings)
	}
	if rep.Modules != 1 || rep.Pages != 1 {
		t.Errorf("modules=%d pages=%d, want 1/1", rep.Modules, rep.Pages)
	}
	if rep.RenderedPages != 6 {
		t.Errorf("rendered = %d, want index, module, page and three indices", rep.RenderedPages)
	}
	if rep.BrokenLinks != 0 {
		t.Errorf("broken links = %d", rep.BrokenLinks)
	}

	for _, name := range []string{
		"index.html", "lumache.html", "usage.html",
		"genindex.html", "py-modindex.html", "search.html",
		"search-index.json", "build-report.json",
		"_static/slate.css", "_static/search.js",
	} {
		if _, err := os.Stat(filepath.Join(cfg.Output.Directory, filepath.FromSlash(name))); err != nil {
			t.Errorf("missing output file %s: %v", name, err)
		}
	}
	if _, err := os.Stat(cfg.Output.Directory + "_stage"); !os.IsNotExist(err) {
		t.Error("staging directory survived a successful build")
	}

	index := readOutput(t, cfg, "index.html")
	if !strings.Contains(index, "Lumache Documentation") {
		t.Error("index missing declaration title")
	}
	if !strings.Contains(index, `href="usage.html"`) {
		t.Error("index prose link not rewritten to html")
	}
	if !strings.Contains(index, "Guides") || !strings.Contains(index, "Reference") {
		t.Error("index missing navigation captions")
	}

	module := readOutput(t, cfg, "lumache.html")
	if !strings.Contains(module, `id="lumache.get_random_ingredients"`) {
		t.Error("module page missing member anchor")
	}
	if !strings.Contains(module, "(kind: str = None)") {
		t.Error("module page missing signature")
	}
	if !strings.Contains(module, `class="member kind-function undocumented" id="lumache.undocumented_stub"`) {
		t.Error("undocumented member must render with its marker class")
	}
	if !strings.Contains(module, "Optional kind of ingredient.") {
		t.Error("module page missing parameter description")
	}

	usage := readOutput(t, cfg, "usage.html")
	if !strings.Contains(usage, `href="lumache.html"`) {
		t.Error("page cross-reference not rewritten to html")
	}

	genindex := readOutput(t, cfg, "genindex.html")
	if !strings.Contains(genindex, `id="index-G"`) {
		t.Error("genindex missing letter section")
	}
	if !strings.Contains(genindex, "lumache.html#lumache.InvalidKindError") {
		t.Error("genindex missing member link")
	}

	modindex := readOutput(t, cfg, "py-modindex.html")
	if !strings.Contains(modindex, `href="lumache.html"`) {
		t.Error("module index missing module link")
	}
}

func TestBuildReproducible(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	cfg.Site.BaseURL = "https://docs.example.com"
	fixed := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(cfg, cfg.Output.Directory).SetClock(func() time.Time { return fixed })

	snapshot := func() map[string]string {
		files := make(map[string]string)
		err := filepath.WalkDir(cfg.Output.Directory, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if strings.HasPrefix(d.Name(), "build-report") {
				return nil // carries build id and wall-clock timestamps
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(cfg.Output.Directory, p)
			files[rel] = string(data)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		return files
	}

	if _, err := g.Build(context.Background()); err != nil {
		t.Fatalf("first build error = %v", err)
	}
	first := snapshot()

	if _, err := g.Build(context.Background()); err != nil {
		t.Fatalf("second build error = %v", err)
	}
	second := snapshot()

	if len(first) == 0 {
		t.Fatal("no output files captured")
	}
	if len(first) != len(second) {
		t.Fatalf("file count changed between builds: %d vs %d", len(first), len(second))
	}
	for name, want := range first {
		got, ok := second[name]
		if !ok {
			t.Errorf("%s missing from second build", name)
			continue
		}
		if got != want {
			t.Errorf("%s differs between identical builds", name)
		}
	}
}

func TestBuildFailsOnBrokenReference(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	rewriteIndex(t, cfg, "Lumache Documentation\n=====================\n\n.. toctree::\n\n   ghost\n")
	g := NewGenerator(cfg, cfg.Output.Directory)

	rep, err := g.Build(context.Background())
	if err == nil {
		t.Fatal("Build() must fail on an unresolved reference")
	}
	if !errors.Is(err, ErrContent) {
		t.Errorf("error = %v, want ErrContent in chain", err)
	}
	if rep == nil || rep.OutcomeT != OutcomeFailed {
		t.Fatalf("report = %+v, want failed outcome", rep)
	}
	if !strings.Contains(err.Error(), `"ghost"`) {
		t.Errorf("error should name the broken ref: %v", err)
	}

	if _, statErr := os.Stat(cfg.Output.Directory); !os.IsNotExist(statErr) {
		t.Error("failed build must not create the output directory")
	}
	if _, statErr := os.Stat(cfg.Output.Directory + "_stage"); !os.IsNotExist(statErr) {
		t.Error("failed build must clean up its staging directory")
	}
}

func TestBuildKeepsPreviousOutputOnFailure(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	g := NewGenerator(cfg, cfg.Output.Directory)

	if _, err := g.Build(context.Background()); err != nil {
		t.Fatalf("initial build error = %v", err)
	}

	rewriteIndex(t, cfg, "Lumache Documentation\n=====================\n\n.. toctree::\n\n   ghost\n")
	if _, err := g.Build(context.Background()); err == nil {
		t.Fatal("second build should fail")
	}

	index := readOutput(t, cfg, "index.html")
	if !strings.Contains(index, "Lumache Documentation") {
		t.Error("previous output damaged by failed rebuild")
	}
	var persisted BuildReportSerializable
	if err := json.Unmarshal([]byte(readOutput(t, cfg, "build-report.json")), &persisted); err != nil {
		t.Fatal(err)
	}
	if persisted.Outcome != "success" {
		t.Errorf("persisted report outcome = %q, want the previous successful build", persisted.Outcome)
	}
}

func TestBuildMalformedHeadingFails(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	rewriteIndex(t, cfg, "Lumache Documentation\n=========\n\n.. toctree::\n\n   lumache\n")
	g := NewGenerator(cfg, cfg.Output.Directory)

	rep, err := g.Build(context.Background())
	if err == nil {
		t.Fatal("Build() must fail on a malformed heading")
	}
	if !errors.Is(err, ErrContent) {
		t.Errorf("error = %v, want ErrContent in chain", err)
	}
	if !strings.Contains(err.Error(), "index.txt") {
		t.Errorf("error should carry the declaration file: %v", err)
	}
	if rep.OutcomeT != OutcomeFailed {
		t.Errorf("outcome = %q", rep.Outcome)
	}
}

func TestBuildImportFailureProducesStub(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	cfg.Source.Modules = []string{"lumache", "zest"}
	rewriteIndex(t, cfg, `Lumache Documentation
=====================

.. toctree::
   :caption: Reference

   lumache
   zest
`)
	g := NewGenerator(cfg, cfg.Output.Directory)

	rep, err := g.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v, import failures must not abort", err)
	}
	if rep.OutcomeT != OutcomeWarning {
		t.Errorf("outcome = %q, want warning", rep.Outcome)
	}
	if rep.FailedModules != 1 {
		t.Errorf("failed modules = %d, want 1", rep.FailedModules)
	}
	if len(rep.Warnings) == 0 {
		t.Error("report missing the scan warning")
	}

	stub := readOutput(t, cfg, "zest.html")
	if !strings.Contains(stub, "Import failed") {
		t.Error("stub page missing import notice")
	}

	index := readOutput(t, cfg, "index.html")
	if !strings.Contains(index, `href="zest.html"`) {
		t.Error("navigation must keep the failed module's entry")
	}

	modindex := readOutput(t, cfg, "py-modindex.html")
	if !strings.Contains(modindex, "<em>import failed</em>") {
		t.Error("module index must mark the stub")
	}
}

func TestBuildCanceled(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	g := NewGenerator(cfg, cfg.Output.Directory)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := g.Build(ctx)
	if err == nil {
		t.Fatal("Build() with canceled context must fail")
	}
	if rep.OutcomeT != OutcomeCanceled {
		t.Errorf("outcome = %q, want canceled", rep.Outcome)
	}
	if _, statErr := os.Stat(cfg.Output.Directory); !os.IsNotExist(statErr) {
		t.Error("canceled build must not create output")
	}
	if _, statErr := os.Stat(cfg.Output.Directory + "_stage"); !os.IsNotExist(statErr) {
		t.Error("canceled build must clean up staging")
	}
}

func TestBuildUnknownTheme(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	cfg.Site.Theme = "neon"
	g := NewGenerator(cfg, cfg.Output.Directory)

	rep, err := g.Build(context.Background())
	if err == nil {
		t.Fatal("Build() must fail for an unregistered theme")
	}
	if !errors.Is(err, ErrTheme) {
		t.Errorf("error = %v, want ErrTheme in chain", err)
	}
	if rep.OutcomeT != OutcomeFailed {
		t.Errorf("outcome = %q", rep.Outcome)
	}
}

func TestBuildPlainTheme(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	cfg.Site.Theme = "plain"
	g := NewGenerator(cfg, cfg.Output.Directory)

	rep, err := g.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if rep.OutcomeT != OutcomeSuccess {
		t.Fatalf("outcome = %q, warnings = %v", rep.Outcome, rep.Warnings)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Directory, "_static", "plain.css")); err != nil {
		t.Errorf("plain theme stylesheet missing: %v", err)
	}
	if index := readOutput(t, cfg, "index.html"); !strings.Contains(index, "Lumache") {
		t.Error("index missing project content")
	}
}

func TestBuildSitemap(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	cfg.Site.BaseURL = "https://docs.example.com/"
	g := NewGenerator(cfg, cfg.Output.Directory)

	if _, err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	sitemap := readOutput(t, cfg, "sitemap.xml")
	if !strings.Contains(sitemap, "<loc>https://docs.example.com/index.html</loc>") {
		t.Errorf("sitemap missing index entry:\n%s", sitemap)
	}
	if strings.Contains(sitemap, ".com//") {
		t.Error("trailing slash in base url must not double up")
	}
	if got := strings.Count(sitemap, "<url>"); got != 6 {
		t.Errorf("sitemap urls = %d, want one per document", got)
	}
}

func TestBuildWithoutBaseURLSkipsSitemap(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	g := NewGenerator(cfg, cfg.Output.Directory)

	if _, err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Directory, "sitemap.xml")); !os.IsNotExist(err) {
		t.Error("sitemap written without a base url")
	}
}

func TestBuildUserStaticOverridesTheme(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFixtureProject(t, dir)
	assets := filepath.Join(dir, "assets")
	if err := os.MkdirAll(assets, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(assets, "extra.css"), []byte(".extra{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(assets, "slate.css"), []byte("/* override */"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Site.Static = []string{assets, filepath.Join(dir, "missing-is-fine")}
	g := NewGenerator(cfg, cfg.Output.Directory)

	if _, err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := readOutput(t, cfg, "_static/extra.css"); got != ".extra{}" {
		t.Errorf("extra.css = %q", got)
	}
	if got := readOutput(t, cfg, "_static/slate.css"); got != "/* override */" {
		t.Error("user static must win over the theme asset of the same name")
	}
}

func TestBuildSearchIndexFile(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	g := NewGenerator(cfg, cfg.Output.Directory)

	if _, err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var docs []SearchDoc
	if err := json.Unmarshal([]byte(readOutput(t, cfg, "search-index.json")), &docs); err != nil {
		t.Fatalf("search index invalid: %v", err)
	}

	byTitle := make(map[string]SearchDoc, len(docs))
	for _, d := range docs {
		byTitle[d.Title] = d
	}
	if d, ok := byTitle["lumache"]; !ok || d.Kind != "module" {
		t.Errorf("module entry = %+v", d)
	}
	fn, ok := byTitle["lumache.get_random_ingredients"]
	if !ok {
		t.Fatalf("member entry missing, have %v", docs)
	}
	if fn.Kind != "function" || fn.Href != "lumache.html#lumache.get_random_ingredients" {
		t.Errorf("member entry = %+v", fn)
	}
	if d, ok := byTitle["Usage"]; !ok || d.Kind != "page" {
		t.Errorf("page entry = %+v", d)
	}
}

// captureRecorder counts recorder calls for assertions.
type captureRecorder struct {
	mu           sync.Mutex
	outcomes     []string
	pagesObs     []int
	stageResults map[string]int
	buildObs     int
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{stageResults: make(map[string]int)}
}

func (c *captureRecorder) ObserveStageDuration(string, time.Duration) {}

func (c *captureRecorder) ObserveBuildDuration(time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buildObs++
}

func (c *captureRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stageResults[stage+"/"+string(result)]++
}

func (c *captureRecorder) IncBuildOutcome(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

func (c *captureRecorder) ObservePagesRendered(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pagesObs = append(c.pagesObs, n)
}

func (c *captureRecorder) IncBrokenLinks(int) {}

func TestBuildRecordsMetrics(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	rec := newCaptureRecorder()
	g := NewGenerator(cfg, cfg.Output.Directory).SetRecorder(rec)

	if _, err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(rec.outcomes) != 1 || rec.outcomes[0] != "success" {
		t.Errorf("outcomes = %v", rec.outcomes)
	}
	if rec.buildObs != 1 {
		t.Errorf("build duration observations = %d", rec.buildObs)
	}
	if len(rec.pagesObs) != 1 || rec.pagesObs[0] != 6 {
		t.Errorf("pages observations = %v", rec.pagesObs)
	}
	if rec.stageResults["scan_modules/success"] != 1 {
		t.Errorf("stage results = %v", rec.stageResults)
	}
}

func TestSetRecorderNilResetsToNoop(t *testing.T) {
	cfg := writeFixtureProject(t, t.TempDir())
	g := NewGenerator(cfg, cfg.Output.Directory).SetRecorder(nil)

	if _, err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() with nil recorder error = %v", err)
	}
}
