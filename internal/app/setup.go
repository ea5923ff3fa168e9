package app

import (
	"fmt"
	"log/slog"
	"time"

	"thumbdeck/internal/config"
	"thumbdeck/internal/deck"
	apperrors "thumbdeck/internal/errors"
	"thumbdeck/internal/exporter"
	"thumbdeck/internal/files"
	"thumbdeck/internal/infrastructure"
	"thumbdeck/internal/table"
	"thumbdeck/internal/thumbnail"
	"thumbdeck/internal/validation"
)

// Output kinds.
const (
	KindPresentation = "pptx"
	KindPreview      = "preview"
	KindManifest     = "manifest"
)

// NewFromConfig opens the input table and template named by cfg and returns
// a generator writing the presentation and, when configured, PNG previews
// and a slide manifest.
func NewFromConfig(cfg *config.Config, tel *infrastructure.Telemetry, logger *slog.Logger) (*Generator, error) {
	fm := files.NewManager(cfg.Paths.BaseDir)
	fv := validation.NewFileValidator(logger)

	template := fm.Resolve(cfg.Paths.Template)
	if err := fv.ValidateTemplateFile(template); err != nil {
		return nil, err
	}
	output := fm.Resolve(cfg.Paths.Output)
	if err := fv.ValidateOutputPath(output); err != nil {
		return nil, err
	}

	source, opts, err := openSource(cfg, fm, fv, tel, logger)
	if err != nil {
		return nil, err
	}

	presentation, err := deck.OpenPresentation(template)
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		WithCanvas(deck.Canvas{Width: cfg.Deck.CanvasWidth, Height: cfg.Deck.CanvasHeight}),
		WithOutput(KindPresentation, presentation, output),
	)

	if cfg.Paths.Previews != "" {
		dir := fm.Resolve(cfg.Paths.Previews)
		if err := fv.ValidateOutputDirectory(dir); err != nil {
			return nil, err
		}
		previews, err := deck.NewPreviewRenderer(presentation.LayoutCount(), cfg.Deck.PreviewPalette)
		if err != nil {
			return nil, apperrors.NewTemplateError("failed to set up preview renderer", err)
		}
		opts = append(opts, WithOutput(KindPreview, previews, dir))
	}
	if cfg.Paths.Manifest != "" {
		manifest := fm.Resolve(cfg.Paths.Manifest)
		if err := fv.ValidateOutputPath(manifest); err != nil {
			return nil, err
		}
		opts = append(opts, WithOutput(KindManifest, exporter.NewManifest(presentation.LayoutCount()), manifest))
	}

	return NewGenerator(source, thumbnail.NewContentBuilder(cfg.Deck.OrganizationName), opts...), nil
}

// NewDryRunFromConfig returns a generator with no outputs. Only the input
// table is checked and opened; the template and output paths are ignored.
func NewDryRunFromConfig(cfg *config.Config, tel *infrastructure.Telemetry, logger *slog.Logger) (*Generator, error) {
	fm := files.NewManager(cfg.Paths.BaseDir)
	source, opts, err := openSource(cfg, fm, validation.NewFileValidator(logger), tel, logger)
	if err != nil {
		return nil, err
	}
	return NewGenerator(source, thumbnail.NewContentBuilder(cfg.Deck.OrganizationName), opts...), nil
}

func openSource(cfg *config.Config, fm *files.Manager, fv *validation.FileValidator,
	tel *infrastructure.Telemetry, logger *slog.Logger) (table.Source, []Option, error) {
	input := fm.Resolve(cfg.Paths.Input)
	if err := fv.ValidateTableFile(input); err != nil {
		return nil, nil, err
	}

	loc := time.UTC
	if cfg.Deck.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Deck.Timezone); err != nil {
			return nil, nil, apperrors.NewConfigError(fmt.Sprintf("unknown time zone %q", cfg.Deck.Timezone), err)
		}
	}

	source, err := table.Open(input, cfg.Deck.Sheet)
	if err != nil {
		return nil, nil, err
	}

	opts := []Option{
		WithLogger(logger),
		WithTelemetry(tel),
		WithPreprocessOptions(thumbnail.PreprocessOptions{
			TruncateFractions: cfg.Deck.TruncateFractions,
			Location:          loc,
		}),
	}
	return source, opts, nil
}
