package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsmith/internal/config"
	"git.home.luguber.info/inful/docsmith/internal/gitsource"
	"git.home.luguber.info/inful/docsmith/internal/history"
	"git.home.luguber.info/inful/docsmith/internal/notify"
	"git.home.luguber.info/inful/docsmith/internal/pyscan"
	"git.home.luguber.info/inful/docsmith/internal/retry"
	"git.home.luguber.info/inful/docsmith/internal/serve"
	"git.home.luguber.info/inful/docsmith/internal/site"
	"git.home.luguber.info/inful/docsmith/internal/version"
	"git.home.luguber.info/inful/docsmith/internal/workspace"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docsmith.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Build struct {
		Output string `short:"o" help:"Output directory (overrides configuration)"`
	} `cmd:"" help:"Build the documentation site"`

	Init struct {
		Force bool `help:"Overwrite existing files"`
	} `cmd:"" help:"Scaffold a configuration file, content skeleton and example module"`

	Scan struct{} `cmd:"" help:"Resolve and scan configured modules without rendering"`

	Serve struct {
		Addr string `help:"Listen address (overrides configuration)"`
	} `cmd:"" help:"Build the site, serve it over HTTP and rebuild on changes"`

	History struct {
		Limit int `short:"n" help:"Number of builds to show" default:"20"`
	} `cmd:"" help:"Show recent builds from the history store"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("docsmith"),
		kong.Description("Docstring-driven documentation site generator for Python packages"),
		kong.Vars{"version": version.Version},
	)

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Execute command
	switch ctx.Command() {
	case "build":
		if err := runBuild(CLI.Config, CLI.Build.Output); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
	case "scan":
		if err := runScan(CLI.Config); err != nil {
			slog.Error("Scan failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		if err := runServe(CLI.Config, CLI.Serve.Addr); err != nil {
			slog.Error("Serve failed", "error", err)
			os.Exit(1)
		}
	case "history":
		if err := runHistory(CLI.Config, CLI.History.Limit); err != nil {
			slog.Error("History failed", "error", err)
			os.Exit(1)
		}
	}
}

func runBuild(configPath, outputOverride string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	outputDir := cfg.Output.Directory
	if outputOverride != "" {
		outputDir = outputOverride
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	generator := site.NewGenerator(cfg, outputDir)
	rep, buildErr := generator.Build(ctx)

	if rep != nil {
		fmt.Println(rep.Summary())
		if cfg.History.Path != "" {
			recordHistory(cfg.History.Path, rep)
		}
	}

	return buildErr
}

// recordHistory appends the report to the configured history store. Best
// effort: a broken store must not fail the build that already happened.
func recordHistory(path string, rep *site.BuildReport) {
	store, err := history.NewStore(path)
	if err != nil {
		slog.Warn("Failed to open history store", "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Append(context.Background(), history.FromReport(rep)); err != nil {
		slog.Warn("Failed to record build history", "error", err)
	}
}

func runScan(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	paths := append([]string{}, cfg.Source.Paths...)

	if len(cfg.Source.Repos) > 0 {
		wsManager := workspace.NewManager("")
		if err := wsManager.Create(); err != nil {
			return err
		}
		defer func() {
			if err := wsManager.Cleanup(); err != nil {
				slog.Warn("Failed to cleanup workspace", "error", err)
			}
		}()

		client := gitsource.NewClient(wsManager.Path(), retry.DefaultPolicy())
		if err := client.EnsureWorkspace(); err != nil {
			return err
		}

		fetched, failures := client.FetchAll(ctx, cfg.Source.Repos)
		paths = append(paths, fetched...)
		for _, failure := range failures {
			slog.Warn("Repository fetch failed", "repository", failure.Repo, "error", failure.Err)
		}
	}

	scanner := pyscan.NewScanner(paths)
	modules, failures := scanner.ScanAll(ctx, cfg.Source.Modules)

	for _, mod := range modules {
		fmt.Printf("%s (%s)\n", mod.Name, mod.Path)
		printMembers(mod.Members, "  ")
	}
	for _, failure := range failures {
		fmt.Printf("%s: FAILED: %v\n", failure.Module, failure.Err)
	}

	slog.Info("Scan completed", "modules", len(modules), "failures", len(failures))

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d modules failed to scan", len(failures), len(cfg.Source.Modules))
	}
	return nil
}

func printMembers(members []pyscan.Member, indent string) {
	for _, m := range members {
		marker := ""
		if m.Undocumented() {
			marker = "  (undocumented)"
		}
		fmt.Printf("%s%s %s%s\n", indent, m.Kind, m.Name, marker)
		printMembers(m.Members, indent+"  ")
	}
}

func runServe(configPath, addrOverride string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if addrOverride != "" {
		cfg.Serve.Addr = addrOverride
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	generator := site.NewGenerator(cfg, cfg.Output.Directory)
	server := serve.New(cfg, generator)

	if cfg.History.Path != "" {
		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			slog.Warn("History store unavailable", "error", err)
		} else {
			defer func() { _ = store.Close() }()
			server.SetHistory(store)
		}
	}

	if cfg.Notify.Enabled {
		notifier, err := notify.NewNotifier(&cfg.Notify)
		if err != nil {
			slog.Warn("Notifications unavailable", "error", err)
		} else {
			defer func() { _ = notifier.Close() }()
			server.SetNotifier(notifier)
		}
	}

	return server.Run(ctx)
}

func runHistory(configPath string, limit int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("history is not configured: set history.path in %s", configPath)
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	recs, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		fmt.Println("no builds recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tOUTCOME\tDURATION\tMODULES\tPAGES\tRENDERED\tERRORS\tWARNINGS\tBUILD ID")
	for _, rec := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			rec.Started.Format("2006-01-02 15:04:05"),
			rec.Outcome,
			rec.Duration.Round(time.Millisecond),
			rec.Modules,
			rec.Pages,
			rec.RenderedPages,
			rec.Errors,
			rec.Warnings,
			rec.ID,
		)
	}
	return w.Flush()
}
