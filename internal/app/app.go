package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"thumbdeck/internal/deck"
	apperrors "thumbdeck/internal/errors"
	"thumbdeck/internal/files"
	"thumbdeck/internal/infrastructure"
	"thumbdeck/internal/table"
	"thumbdeck/internal/thumbnail"
)

// Output is one document the generator fills and saves.
type Output struct {
	// Kind labels the output in logs and metrics, e.g. "pptx" or "preview".
	Kind     string
	Document deck.Document
	Path     string
}

// Result summarizes a run.
type Result struct {
	TraceID  string
	Rows     int
	Slides   int
	Contents []thumbnail.Content
	Saved    []string
	Duration time.Duration
}

// Generator turns the rows of a table into slides, one per row, in row order.
type Generator struct {
	source     table.Source
	builder    *thumbnail.ContentBuilder
	preprocess thumbnail.PreprocessOptions
	canvas     deck.Canvas
	outputs    []Output

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.RunMetrics
}

// Option configures a Generator.
type Option func(*Generator)

// WithOutput adds a document to fill. Outputs are saved in the order added.
func WithOutput(kind string, doc deck.Document, path string) Option {
	return func(g *Generator) {
		g.outputs = append(g.outputs, Output{Kind: kind, Document: doc, Path: path})
	}
}

// WithPreprocessOptions sets how raw cells are coerced.
func WithPreprocessOptions(opts thumbnail.PreprocessOptions) Option {
	return func(g *Generator) { g.preprocess = opts }
}

// WithCanvas sets the slide size applied to every output.
func WithCanvas(c deck.Canvas) Option {
	return func(g *Generator) { g.canvas = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithTelemetry records spans and run metrics through t.
func WithTelemetry(t *infrastructure.Telemetry) Option {
	return func(g *Generator) {
		if t == nil {
			return
		}
		g.tracer = t.Tracer
		g.metrics = t.Metrics
	}
}

// NewGenerator creates a generator reading rows from source.
func NewGenerator(source table.Source, builder *thumbnail.ContentBuilder, opts ...Option) *Generator {
	g := &Generator{
		source:  source,
		builder: builder,
		canvas:  deck.Canvas16x9,
		logger:  slog.Default(),
		tracer:  tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = infrastructure.WithComponent(g.logger, "generator")
	return g
}

// Run loads and normalizes every row, derives the slide content, fills each
// output and saves it. Any bad row aborts the run before the first Save, so
// no output is written unless every row succeeds.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := g.tracer.Start(ctx, "thumbdeck.generate")
	defer span.End()
	start := time.Now()

	result, err := g.run(ctx, false)
	g.finish(ctx, result, start, err)
	return result, err
}

// DryRun derives the content of every row without touching any output.
func (g *Generator) DryRun(ctx context.Context) (*Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := g.tracer.Start(ctx, "thumbdeck.dry_run")
	defer span.End()
	start := time.Now()

	result, err := g.run(ctx, true)
	g.finish(ctx, result, start, err)
	return result, err
}

func (g *Generator) run(ctx context.Context, dryRun bool) (*Result, error) {
	result := &Result{TraceID: infrastructure.GetTraceID(ctx)}

	records, err := g.source.Load(ctx)
	if err != nil {
		return result, err
	}
	rows, err := thumbnail.Preprocess(records, g.preprocess)
	if err != nil {
		return result, err
	}
	result.Rows = len(rows)

	result.Contents = make([]thumbnail.Content, 0, len(rows))
	for _, row := range rows {
		result.Contents = append(result.Contents, g.builder.Build(row))
	}
	g.logger.InfoContext(ctx, "Derived slide content",
		slog.Int("rows", len(rows)),
		slog.Bool("dry_run", dryRun))

	if dryRun {
		return result, nil
	}

	if err := g.checkLayouts(rows); err != nil {
		return result, err
	}

	for _, out := range g.outputs {
		out.Document.SetCanvasSize(g.canvas)
	}
	for i, row := range rows {
		if err := g.addSlide(ctx, row, result.Contents[i]); err != nil {
			return result, err
		}
		result.Slides++
	}

	return result, g.save(ctx, result, len(rows))
}

// save writes every output to a staging path first and moves them into
// place only once all of them succeeded.
func (g *Generator) save(ctx context.Context, result *Result, slides int) error {
	staged := make([]string, 0, len(g.outputs))
	for _, out := range g.outputs {
		if err := ctx.Err(); err != nil {
			files.Discard(staged...)
			return err
		}
		tmp := files.StagingPath(out.Path)
		staged = append(staged, tmp)
		if err := out.Document.Save(tmp); err != nil {
			files.Discard(staged...)
			return err
		}
	}

	for i, out := range g.outputs {
		if err := files.Commit(staged[i], out.Path); err != nil {
			files.Discard(staged[i:]...)
			return apperrors.NewStorageError("failed to move output into place", err).
				WithContext(apperrors.ContextPath, out.Path)
		}
		g.metrics.RecordSlides(ctx, out.Kind, slides)
		result.Saved = append(result.Saved, out.Path)
		g.logger.InfoContext(ctx, "Saved output",
			slog.String("kind", out.Kind),
			slog.String("path", out.Path),
			slog.Int("slides", slides))
	}
	return nil
}

// checkLayouts rejects the first row whose layout is missing from any output.
func (g *Generator) checkLayouts(rows []thumbnail.Row) error {
	for _, row := range rows {
		for _, out := range g.outputs {
			if n := out.Document.LayoutCount(); row.LayoutIndex >= n {
				return apperrors.NewUnknownLayoutError(row.LayoutIndex, n).
					WithContext(apperrors.ContextRow, row.Position).
					WithContext("output", out.Kind)
			}
		}
	}
	return nil
}

func (g *Generator) addSlide(ctx context.Context, row thumbnail.Row, content thumbnail.Content) error {
	ctx, span := g.tracer.Start(ctx, "thumbdeck.slide", trace.WithAttributes(
		attribute.Int("row", row.Position),
		attribute.Int("layout_index", row.LayoutIndex),
	))
	defer span.End()

	for _, out := range g.outputs {
		slide, err := out.Document.AddSlide(row.LayoutIndex)
		if err != nil {
			return withRow(err, row.Position)
		}
		if err := slide.SetPlaceholderText(deck.TitlePlaceholder, content.Title, deck.TitleFontSize); err != nil {
			return withRow(err, row.Position)
		}
		if err := slide.SetPlaceholderText(deck.SubtitlePlaceholder, content.Subtitle, deck.SubtitleFontSize); err != nil {
			return withRow(err, row.Position)
		}
	}
	g.logger.DebugContext(ctx, "Added slide",
		slog.Int("row", row.Position),
		slog.Int("layout_index", row.LayoutIndex),
		slog.String("title", content.Title))
	return nil
}

func (g *Generator) finish(ctx context.Context, result *Result, start time.Time, err error) {
	result.Duration = time.Since(start)
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"rows":   result.Rows,
		"slides": result.Slides,
	})

	errType := ""
	if err != nil {
		infrastructure.RecordError(ctx, err)
		attrs := []any{"error", err.Error()}
		if appErr, ok := apperrors.As(err); ok {
			errType = string(appErr.Type)
			attrs = appErr.LogAttrs()
		} else {
			errType = "UNKNOWN"
		}
		g.logger.ErrorContext(ctx, "Generation aborted", attrs...)
	} else {
		g.logger.InfoContext(ctx, "Generation complete",
			slog.Int("rows", result.Rows),
			slog.Int("slides", result.Slides),
			slog.Duration("duration", result.Duration))
	}
	g.metrics.RecordRun(ctx, result.Rows, result.Duration, errType)
}

func withRow(err error, position int) error {
	if appErr, ok := apperrors.As(err); ok {
		if _, set := appErr.Context[apperrors.ContextRow]; !set {
			appErr.WithContext(apperrors.ContextRow, position)
		}
	}
	return err
}
