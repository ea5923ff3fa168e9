package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"thumbdeck/internal/app"
	"thumbdeck/internal/config"
	"thumbdeck/internal/deck"
	apperrors "thumbdeck/internal/errors"
	"thumbdeck/internal/files"
	"thumbdeck/internal/infrastructure"
)

type options struct {
	configPath        string
	input             string
	sheet             string
	template          string
	output            string
	org               string
	previews          string
	manifest          string
	metrics           string
	dryRun            bool
	truncateFractions bool
	initTemplate      int
	listLayouts       bool
	version           bool

	set map[string]bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (defaults to thumbdeck.yaml or configs/thumbdeck.yaml when present)")
	fs.StringVar(&opts.input, "input", "", "input table, .csv or .xlsx (default "+config.DefaultInputPath+")")
	fs.StringVar(&opts.sheet, "sheet", "", "worksheet to read from an .xlsx input (defaults to the first sheet)")
	fs.StringVar(&opts.template, "template", "", "PowerPoint template (default "+config.DefaultTemplatePath+")")
	fs.StringVar(&opts.output, "output", "", "output presentation (default "+config.DefaultOutputPath+")")
	fs.StringVar(&opts.org, "org", "", "organization name on the second subtitle line")
	fs.StringVar(&opts.previews, "previews", "", "directory for PNG previews of every slide")
	fs.StringVar(&opts.manifest, "manifest", "", "write the text of every slide to this .csv or .xlsx file")
	fs.StringVar(&opts.metrics, "metrics", "", "write run metrics to this .prom textfile")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print the derived slide content as JSON lines without writing any file")
	fs.BoolVar(&opts.truncateFractions, "truncate-fractions", false, "truncate fractional part and index values instead of rejecting them")
	fs.IntVar(&opts.initTemplate, "init-template", 0, "write a default template with N layouts to the template path and exit")
	fs.BoolVar(&opts.listLayouts, "list-layouts", false, "list the layouts of the template and exit")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// apply overrides cfg with the flags given on the command line.
func (o *options) apply(cfg *config.Config) {
	if o.set["input"] {
		cfg.Paths.Input = o.input
	}
	if o.set["sheet"] {
		cfg.Deck.Sheet = o.sheet
	}
	if o.set["template"] {
		cfg.Paths.Template = o.template
	}
	if o.set["output"] {
		cfg.Paths.Output = o.output
	}
	if o.set["org"] {
		cfg.Deck.OrganizationName = o.org
	}
	if o.set["previews"] {
		cfg.Paths.Previews = o.previews
	}
	if o.set["manifest"] {
		cfg.Paths.Manifest = o.manifest
	}
	if o.set["metrics"] {
		cfg.Telemetry.MetricsFile = o.metrics
	}
	if o.set["truncate-fractions"] {
		cfg.Deck.TruncateFractions = o.truncateFractions
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if opts.version {
		fmt.Fprintf(stdout, "%s %s\n", config.AppName, config.AppVersion)
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err == nil {
		opts.apply(cfg)
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	slog.SetDefault(logger)
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	switch {
	case opts.initTemplate > 0:
		err = initTemplate(cfg, opts.initTemplate)
	case opts.listLayouts:
		err = listLayouts(cfg, stdout)
	default:
		err = generate(ctx, cfg, opts.dryRun, stdout, stderr, logger)
	}
	if err != nil {
		logError(ctx, logger, err)
		return 1
	}
	return 0
}

func initTemplate(cfg *config.Config, layouts int) error {
	fm := files.NewManager(cfg.Paths.BaseDir)
	if fm.FileExists(cfg.Paths.Template) {
		return apperrors.NewStorageError("template already exists", nil).
			WithContext(apperrors.ContextPath, fm.Resolve(cfg.Paths.Template))
	}
	path := fm.Resolve(cfg.Paths.Template)
	if err := deck.WriteDefaultTemplate(path, layouts); err != nil {
		return err
	}
	slog.Info("Wrote default template", slog.String("path", path), slog.Int("layouts", layouts))
	return nil
}

func listLayouts(cfg *config.Config, stdout io.Writer) error {
	p, err := deck.OpenPresentation(cfg.Resolve(cfg.Paths.Template))
	if err != nil {
		return err
	}
	for _, l := range p.Layouts() {
		fmt.Fprintf(stdout, "%d\t%s\tplaceholders=%v\n", l.Index, l.Name, l.Placeholders)
	}
	return nil
}

func generate(ctx context.Context, cfg *config.Config, dryRun bool, stdout, stderr io.Writer, logger *slog.Logger) error {
	tel, err := infrastructure.InitTelemetry(cfg.Telemetry, stderr, logger)
	if err != nil {
		return apperrors.NewConfigError("failed to initialize telemetry", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	newGenerator := app.NewFromConfig
	if dryRun {
		newGenerator = app.NewDryRunFromConfig
	}
	g, err := newGenerator(cfg, tel, logger)
	if err != nil {
		return err
	}

	var result *app.Result
	if dryRun {
		result, err = g.DryRun(ctx)
	} else {
		result, err = g.Run(ctx)
	}

	if cfg.Telemetry.MetricsFile != "" {
		if werr := tel.WriteMetrics(cfg.Resolve(cfg.Telemetry.MetricsFile)); werr != nil {
			logger.Warn("Failed to write metrics", slog.String("error", werr.Error()))
		}
	}
	if err != nil {
		return err
	}

	if dryRun {
		enc := json.NewEncoder(stdout)
		for _, c := range result.Contents {
			if err := enc.Encode(c); err != nil {
				return err
			}
		}
		return nil
	}
	fmt.Fprintf(stdout, "wrote %d slides to %s\n", result.Slides, strings.Join(result.Saved, ", "))
	return nil
}

func logError(ctx context.Context, logger *slog.Logger, err error) {
	if appErr, ok := apperrors.As(err); ok {
		logger.ErrorContext(ctx, "thumbdeck failed", appErr.LogAttrs()...)
		return
	}
	logger.ErrorContext(ctx, "thumbdeck failed", slog.String("error", err.Error()))
}
