package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/remedy/internal/classify"
	"github.com/standardbeagle/remedy/internal/config"
	"github.com/standardbeagle/remedy/internal/debug"
	"github.com/standardbeagle/remedy/internal/diagparse"
	"github.com/standardbeagle/remedy/internal/ledger"
	"github.com/standardbeagle/remedy/internal/pipeline"
	"github.com/standardbeagle/remedy/internal/types"
	"github.com/standardbeagle/remedy/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = cwd
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, err
	}
	cfg.Project.Root = absRoot

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if c.Bool("dry-run") {
		cfg.Remediate.DryRun = true
	}
	if cats := c.StringSlice("category"); len(cats) > 0 {
		cfg.Remediate.Categories = cats
	}
	if n := c.Int("max-files"); n > 0 {
		cfg.Remediate.MaxFiles = n
	}
	if n := c.Int("workers"); n > 0 {
		cfg.Remediate.Workers = n
	}
	if kt := c.String("knowledge"); kt != "" {
		cfg.Knowledge = kt
	}

	return cfg, nil
}

// loadDiagnostics reads and classifies the compiler report. A missing
// report file is the fatal case reserved for a non-zero exit.
func loadDiagnostics(reportPath string) ([]types.CategorizedDiagnostic, int, error) {
	if reportPath == "" {
		return nil, 0, nil
	}
	diags, skipped, err := diagparse.ParseFile(reportPath)
	if err != nil {
		return nil, 0, err
	}
	return classify.New().ClassifyAll(diags), skipped, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printReport(c *cli.Context, report *ledger.Report) {
	format := "text"
	if c.Bool("json") {
		format = "json"
	}
	formatter := ledger.NewFormatter(ledger.FormatterOptions{
		Format:  format,
		Verbose: c.Bool("verbose"),
	})
	fmt.Fprintln(c.App.Writer, formatter.Format(report))
}

// writeReviewFile flushes the manual-review list next to the project
// root. Nothing is written when there is nothing to review.
func writeReviewFile(cfg *config.Config, report *ledger.Report) error {
	content := ledger.FormatReviewList(report.Reviews)
	if content == "" {
		return nil
	}
	path := cfg.Remediate.ReviewFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Project.Root, path)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func runFix(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	diags, skipped, err := loadDiagnostics(c.Args().First())
	if err != nil {
		return err
	}
	debug.LogPipeline("loaded %d diagnostics (%d lines skipped)", len(diags), skipped)

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, err := p.Fix(ctx, diags)
	if err != nil {
		return err
	}
	if err := writeReviewFile(cfg, report); err != nil {
		return err
	}
	printReport(c, report)
	return nil
}

func runClassify(c *cli.Context) error {
	diags, skipped, err := loadDiagnostics(c.Args().First())
	if err != nil {
		return err
	}
	if len(diags) == 0 {
		fmt.Fprintln(c.App.Writer, "No diagnostics found")
		return nil
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Diagnostics: %d (%d unparsed lines skipped)\n\n", len(diags), skipped)
	fmt.Fprintln(w, "By category:")
	for _, g := range classify.GroupByCategory(diags) {
		fmt.Fprintf(w, "  %-20s %d\n", g.Name, g.Count)
	}
	fmt.Fprintln(w, "\nTop files:")
	for _, g := range classify.TopFiles(diags, 10) {
		fmt.Fprintf(w, "  %5d  %s\n", g.Count, g.Name)
	}
	if c.Bool("verbose") {
		fmt.Fprintln(w, "\nOrdered work list:")
		for _, d := range diags {
			fmt.Fprintf(w, "  [%s] %s:%d:%d %s %s\n", d.Category, d.File, d.Line, d.Column, d.Code, d.Message)
		}
	}
	return nil
}

func runResolve(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, err := p.Resolve(ctx)
	if err != nil {
		return err
	}
	if err := writeReviewFile(cfg, report); err != nil {
		return err
	}
	printReport(c, report)
	return nil
}

func runReport(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	// Forecast only: never mutate, whatever the config says.
	cfg.Remediate.DryRun = true

	diags, _, err := loadDiagnostics(c.Args().First())
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, err := p.Fix(ctx, diags)
	if err != nil {
		return err
	}
	printReport(c, report)
	return nil
}

func runWatch(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	reportPath := c.Args().First()
	if reportPath == "" {
		return fmt.Errorf("watch requires a diagnostics report file to follow")
	}
	absReport, err := filepath.Abs(reportPath)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	w := pipeline.NewWatcher(p, absReport, func(report *ledger.Report) {
		if err := writeReviewFile(cfg, report); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "failed to write review file: %v\n", err)
		}
		printReport(c, report)
	})

	fmt.Fprintf(c.App.Writer, "Watching %s (Ctrl-C to stop)\n", absReport)
	err = w.Run(ctx, func(ctx context.Context) (*ledger.Report, error) {
		// Re-read the report on every pass; a missing file at this
		// point means the writer is mid-replace, so treat it as empty
		// rather than dying.
		diags, _, derr := loadDiagnostics(absReport)
		if derr != nil {
			diags = nil
		}
		return p.Fix(ctx, diags)
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "remedy",
		Usage:                  "Diagnostic-driven source remediation for TypeScript projects",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include 'src/**/*.ts')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/generated/**')",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Detect and count fixes without writing files",
			},
			&cli.StringSliceFlag{
				Name:  "category",
				Usage: "Restrict processing to the named categories",
			},
			&cli.IntFlag{
				Name:  "max-files",
				Usage: "Cap the number of files processed in one batch",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Worker pool size (default: CPU count - 1)",
			},
			&cli.StringFlag{
				Name:  "knowledge",
				Usage: "TOML file with knowledge-table overrides (relative to root)",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output reports as JSON",
			},
			&cli.BoolFlag{
				// no short alias: the app's Version registers -v
				Name:  "verbose",
				Usage: "Include per-change detail in output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "fix",
				Aliases:   []string{"f"},
				Usage:     "Apply the rewrite rules, optionally guided by a compiler report",
				ArgsUsage: "[report-file]",
				Action:    runFix,
			},
			{
				Name:      "classify",
				Aliases:   []string{"c"},
				Usage:     "Parse a compiler report and show the categorized work list",
				ArgsUsage: "<report-file>",
				Action:    runClassify,
			},
			{
				Name:    "resolve",
				Usage:   "Resolve three-way merge conflict regions in the source tree",
				Action:  runResolve,
				Aliases: []string{"rx"},
			},
			{
				Name:      "report",
				Usage:     "Forecast the impact of a fix pass without mutating anything",
				ArgsUsage: "[report-file]",
				Action:    runReport,
			},
			{
				Name:      "watch",
				Aliases:   []string{"w"},
				Usage:     "Re-run the fix pass whenever the compiler report changes",
				ArgsUsage: "<report-file>",
				Action:    runWatch,
			},
		},
	}
}

func main() {
	if debug.IsDebugEnabled() {
		if path, err := debug.InitDebugLogFile(); err == nil {
			defer debug.CloseDebugLog()
			debug.Printf("debug log: %s", path)
		}
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
