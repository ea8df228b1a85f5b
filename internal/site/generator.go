// Package site generates the documentation site: it drives the scan, extract,
// content and render stages through a staged pipeline and promotes the result
// atomically into the output directory.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docsmith/internal/config"
	"git.home.luguber.info/inful/docsmith/internal/content"
	"git.home.luguber.info/inful/docsmith/internal/docstring"
	"git.home.luguber.info/inful/docsmith/internal/gitsource"
	"git.home.luguber.info/inful/docsmith/internal/linkcheck"
	"git.home.luguber.info/inful/docsmith/internal/logfields"
	"git.home.luguber.info/inful/docsmith/internal/metrics"
	"git.home.luguber.info/inful/docsmith/internal/pyscan"
	"git.home.luguber.info/inful/docsmith/internal/retry"
	"git.home.luguber.info/inful/docsmith/internal/workspace"

	_ "git.home.luguber.info/inful/docsmith/internal/site/themes/plain"
	_ "git.home.luguber.info/inful/docsmith/internal/site/themes/slate"
)

// Generator builds the documentation site for one configuration.
type Generator struct {
	cfg          *config.Config
	outputDir    string // final output dir
	stageDir     string // ephemeral staging dir for current build
	workspaceDir string // fixed checkout dir; empty means ephemeral per build
	recorder     metrics.Recorder
	now          func() time.Time
}

// NewGenerator creates a site generator writing to outputDir.
func NewGenerator(cfg *config.Config, outputDir string) *Generator {
	return &Generator{
		cfg:       cfg,
		outputDir: filepath.Clean(outputDir),
		recorder:  metrics.NoopRecorder{},
		now:       time.Now,
	}
}

// SetRecorder injects a metrics recorder (optional). Returns the generator for chaining.
func (g *Generator) SetRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		g.recorder = metrics.NoopRecorder{}
		return g
	}
	g.recorder = r
	return g
}

// SetClock overrides the time source used for generated timestamps, making
// output byte-for-byte reproducible.
func (g *Generator) SetClock(now func() time.Time) *Generator {
	if now != nil {
		g.now = now
	}
	return g
}

// SetWorkspace pins the checkout directory for fetched repositories. Serve
// mode uses a persistent workspace so rebuilds pull instead of reclone.
func (g *Generator) SetWorkspace(dir string) *Generator {
	g.workspaceDir = dir
	return g
}

// OutputDir returns the final output directory.
func (g *Generator) OutputDir() string { return g.outputDir }

// Build runs the full pipeline and returns its report. The report is
// non-nil even when the build fails; on failure the existing output
// directory is left untouched.
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	slog.Info("Starting site build",
		logfields.Name(g.cfg.Project.Name),
		slog.String("output", g.outputDir),
		logfields.Theme(g.cfg.Site.Theme))

	report := newBuildReport(g.cfg.Project.Name)
	if err := g.beginStaging(); err != nil {
		return nil, err
	}

	bs := newBuildState(g, report)
	defer func() {
		if bs.workspace != nil {
			if err := bs.workspace.Cleanup(); err != nil {
				slog.Warn("Workspace cleanup failed", logfields.Error(err))
			}
		}
	}()

	stages := NewPipeline().
		Add(StagePrepareOutput, stagePrepareOutput).
		AddIf(len(g.cfg.Source.Repos) > 0, StageFetchSources, stageFetchSources).
		Add(StageScanModules, stageScanModules).
		Add(StageExtractDocs, stageExtractDocs).
		Add(StageBuildContent, stageBuildContent).
		Add(StageRenderPages, stageRenderPages).
		Add(StageCopyStatic, stageCopyStatic).
		Add(StageVerifyLinks, stageVerifyLinks).
		Add(StagePostProcess, stagePostProcess).
		Build()

	if err := runStages(ctx, bs, stages); err != nil {
		report.deriveOutcome()
		report.finish()
		g.abortStaging()
		g.recordBuild(report)
		return report, err
	}

	report.deriveOutcome()
	report.finish()
	if err := g.finalizeStaging(); err != nil {
		return report, fmt.Errorf("finalize staging: %w", err)
	}
	if err := report.Persist(g.outputDir); err != nil {
		slog.Warn("Failed to persist build report", logfields.Error(err))
	}
	g.recordBuild(report)

	slog.Info("Site build completed",
		logfields.BuildID(report.BuildID),
		slog.String("outcome", report.Outcome),
		slog.Int("rendered", report.RenderedPages),
		slog.Int("warnings", len(report.Warnings)),
		slog.Duration("duration", report.End.Sub(report.Start)))
	return report, nil
}

func (g *Generator) recordBuild(report *BuildReport) {
	if g.recorder == nil {
		return
	}
	g.recorder.ObserveBuildDuration(report.End.Sub(report.Start))
	g.recorder.IncBuildOutcome(report.Outcome)
	g.recorder.ObservePagesRendered(report.RenderedPages)
}

// Stage implementations. Each is a thin wrapper connecting BuildState to the
// packages doing the work, so ordering and error policy stay visible here.

func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	if err := os.MkdirAll(filepath.Join(g.stageDir, "_static"), 0o755); err != nil {
		return fmt.Errorf("prepare output structure: %w", err)
	}
	bs.SourcePaths = append(bs.SourcePaths, g.cfg.Source.Paths...)
	return nil
}

func stageFetchSources(ctx context.Context, bs *BuildState) error {
	g := bs.Generator

	dir := g.workspaceDir
	if dir == "" {
		mgr := workspace.NewManager("")
		if err := mgr.Create(); err != nil {
			return newFatalStageError(StageFetchSources, fmt.Errorf("%w: workspace: %w", ErrFetch, err))
		}
		bs.workspace = mgr
		dir = mgr.Path()
	}

	client := gitsource.NewClient(dir, retry.DefaultPolicy())
	if err := client.EnsureWorkspace(); err != nil {
		return newFatalStageError(StageFetchSources, fmt.Errorf("%w: %w", ErrFetch, err))
	}

	paths, failures := client.FetchAll(ctx, g.cfg.Source.Repos)
	bs.SourcePaths = append(bs.SourcePaths, paths...)
	bs.Report.FetchedRepos = len(paths)
	bs.Report.FailedRepos = len(failures)

	if len(failures) > 0 {
		errs := make([]error, len(failures))
		for i, f := range failures {
			errs[i] = f
		}
		return newWarnStageError(StageFetchSources,
			fmt.Errorf("%w: %d of %d repositories failed: %w",
				ErrFetch, len(failures), len(g.cfg.Source.Repos), errors.Join(errs...)))
	}
	return nil
}

func stageScanModules(ctx context.Context, bs *BuildState) error {
	g := bs.Generator

	scanner := pyscan.NewScanner(bs.SourcePaths)
	modules, failures := scanner.ScanAll(ctx, g.cfg.Source.Modules)
	bs.Modules = modules
	bs.Failures = failures
	bs.Report.Modules = len(g.cfg.Source.Modules)
	bs.Report.FailedModules = len(failures)

	if len(failures) > 0 {
		errs := make([]error, len(failures))
		for i, f := range failures {
			errs[i] = f
		}
		return newWarnStageError(StageScanModules,
			fmt.Errorf("%w: %d of %d modules failed: %w",
				ErrScan, len(failures), len(g.cfg.Source.Modules), errors.Join(errs...)))
	}
	return nil
}

func stageExtractDocs(_ context.Context, bs *BuildState) error {
	g := bs.Generator

	parser, err := docstring.NewParser(g.cfg.Source.Dialects)
	if err != nil {
		return newFatalStageError(StageExtractDocs, fmt.Errorf("%w: %w", ErrExtract, err))
	}

	for _, mod := range bs.Modules {
		md, err := buildModuleDoc(parser, mod)
		if err != nil {
			return newFatalStageError(StageExtractDocs, err)
		}
		bs.ModuleDocs[mod.Name] = md
	}
	for _, f := range bs.Failures {
		bs.ModuleDocs[f.Module] = stubModuleDoc(f)
	}
	return nil
}

func stageBuildContent(_ context.Context, bs *BuildState) error {
	g := bs.Generator

	doc, err := content.ParseFile(g.cfg.Content.Root)
	if err != nil {
		return newFatalStageError(StageBuildContent, fmt.Errorf("%w: %w", ErrContent, err))
	}

	modules := make(map[string]bool, len(g.cfg.Source.Modules))
	for _, m := range g.cfg.Source.Modules {
		modules[m] = true
	}
	tree, err := content.Resolve(doc, modules, g.cfg.Content.Pages)
	if err != nil {
		return newFatalStageError(StageBuildContent, fmt.Errorf("%w: %w", ErrContent, err))
	}
	bs.Tree = tree

	for _, n := range tree.Nodes {
		if n.Kind == content.KindPage {
			bs.Report.Pages++
		}
	}

	s, err := g.assembleSite(bs)
	if err != nil {
		return newFatalStageError(StageBuildContent, err)
	}
	bs.Site = s
	return nil
}

func stageRenderPages(_ context.Context, bs *BuildState) error {
	if err := bs.Generator.renderSite(bs); err != nil {
		return newFatalStageError(StageRenderPages, err)
	}
	return nil
}

func stageCopyStatic(_ context.Context, bs *BuildState) error {
	if err := bs.Generator.copyStaticAssets(); err != nil {
		return newFatalStageError(StageCopyStatic, err)
	}
	return nil
}

func stageVerifyLinks(ctx context.Context, bs *BuildState) error {
	g := bs.Generator

	issues, err := linkcheck.NewChecker(g.stageDir).Check(ctx)
	if err != nil {
		return newFatalStageError(StageVerifyLinks, fmt.Errorf("%w: %w", ErrLinks, err))
	}
	bs.Report.BrokenLinks = len(issues)
	if g.recorder != nil {
		g.recorder.IncBrokenLinks(len(issues))
	}

	if len(issues) > 0 {
		errs := make([]error, len(issues))
		for i, issue := range issues {
			errs[i] = fmt.Errorf("%w: %s", ErrLinks, issue)
		}
		return newWarnStageError(StageVerifyLinks, errors.Join(errs...))
	}
	return nil
}

func stagePostProcess(_ context.Context, bs *BuildState) error {
	if err := bs.Generator.writeSitemap(bs.Site); err != nil {
		return newFatalStageError(StagePostProcess, err)
	}
	return nil
}
