package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"thumbdeck/internal/config"
	"thumbdeck/internal/deck"
	apperrors "thumbdeck/internal/errors"
	"thumbdeck/internal/infrastructure"
	"thumbdeck/internal/shared/testutil"
	"thumbdeck/internal/table"
	"thumbdeck/internal/thumbnail"
)

const org = "UAB IT Research Computing"

type csvSource string

func (s csvSource) Load(ctx context.Context) ([]thumbnail.Record, error) {
	return table.ReadCSV(ctx, strings.NewReader(string(s)))
}

type failingSource struct{ err error }

func (s failingSource) Load(context.Context) ([]thumbnail.Record, error) {
	return nil, s.err
}

type recordedSlide struct {
	layout int
	texts  map[int]string
	sizes  map[int]deck.Points
}

func (s *recordedSlide) SetPlaceholderText(idx int, text string, size deck.Points) error {
	s.texts[idx] = text
	s.sizes[idx] = size
	return nil
}

// recordingDocument is an in-memory deck.Document.
type recordingDocument struct {
	layouts int
	canvas  deck.Canvas
	slides  []*recordedSlide
	saved   []string
	saveErr error
}

func (d *recordingDocument) LayoutCount() int { return d.layouts }

func (d *recordingDocument) AddSlide(layout int) (deck.Slide, error) {
	if layout < 0 || layout >= d.layouts {
		return nil, apperrors.NewUnknownLayoutError(layout, d.layouts)
	}
	s := &recordedSlide{layout: layout, texts: map[int]string{}, sizes: map[int]deck.Points{}}
	d.slides = append(d.slides, s)
	return s, nil
}

func (d *recordingDocument) SetCanvasSize(c deck.Canvas) { d.canvas = c }

func (d *recordingDocument) Save(path string) error {
	if d.saveErr != nil {
		return d.saveErr
	}
	d.saved = append(d.saved, path)
	return os.WriteFile(path, []byte("deck"), 0644)
}

func outPath(t *testing.T, name string) string {
	return filepath.Join(t.TempDir(), name)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

const videosTable = `title,part,category,index,date,layout_index
Intro to HPC,,Tutorial,3,2023-04-01,0
Deep Dive,2,,,2023-12-25,1
`

func TestGenerator_Run(t *testing.T) {
	doc := &recordingDocument{layouts: 2}
	out := outPath(t, "thumbnails.pptx")
	g := NewGenerator(csvSource(videosTable), thumbnail.NewContentBuilder(org),
		WithLogger(quietLogger()),
		WithOutput(KindPresentation, doc, out))

	result, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 2, result.Slides)
	assert.Equal(t, []string{out}, result.Saved)
	require.Len(t, doc.saved, 1)
	assert.NotEqual(t, out, doc.saved[0], "documents are saved to a staging path")
	assert.Equal(t, filepath.Dir(out), filepath.Dir(doc.saved[0]))
	assert.FileExists(t, out)
	assert.NoFileExists(t, doc.saved[0])
	assert.Len(t, result.TraceID, 36)

	require.Len(t, doc.slides, 2)
	assert.Equal(t, deck.Canvas16x9, doc.canvas)

	first := doc.slides[0]
	assert.Equal(t, 0, first.layout)
	assert.Equal(t, "Intro to HPC", first.texts[deck.TitlePlaceholder])
	assert.Equal(t, "Tutorial #3\n"+org+"\n2023-04-01", first.texts[deck.SubtitlePlaceholder])
	assert.Equal(t, deck.TitleFontSize, first.sizes[deck.TitlePlaceholder])
	assert.Equal(t, deck.SubtitleFontSize, first.sizes[deck.SubtitlePlaceholder])

	second := doc.slides[1]
	assert.Equal(t, 1, second.layout)
	assert.Equal(t, "Deep Dive (Part 2)", second.texts[deck.TitlePlaceholder])
	assert.Equal(t, "\n"+org+"\n2023-12-25", second.texts[deck.SubtitlePlaceholder])

	assert.Equal(t, []thumbnail.Content{
		{Title: "Intro to HPC", Subtitle: "Tutorial #3\n" + org + "\n2023-04-01"},
		{Title: "Deep Dive (Part 2)", Subtitle: "\n" + org + "\n2023-12-25"},
	}, result.Contents)
}

func TestGenerator_LayoutDoesNotAffectContent(t *testing.T) {
	input := `title,part,category,index,date,layout_index
Same,1,Talk,4,2024-02-29,0
Same,1,Talk,4,2024-02-29,1
`
	doc := &recordingDocument{layouts: 2}
	g := NewGenerator(csvSource(input), thumbnail.NewContentBuilder(org),
		WithLogger(quietLogger()),
		WithOutput(KindPresentation, doc, outPath(t, "out.pptx")))

	result, err := g.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, doc.slides, 2)
	assert.Equal(t, 0, doc.slides[0].layout)
	assert.Equal(t, 1, doc.slides[1].layout)
	assert.Equal(t, doc.slides[0].texts, doc.slides[1].texts)
	assert.Equal(t, result.Contents[0], result.Contents[1])
}

func TestGenerator_AbortsBeforeWrite(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		layouts  int
		wantType apperrors.ErrorType
		wantRow  int
	}{
		{
			name: "non numeric part",
			table: `title,part,category,index,date,layout_index
Good,,,,2023-01-01,0
Bad,two,,,2023-01-02,0
`,
			layouts:  1,
			wantType: apperrors.ErrTypeMalformedInput,
			wantRow:  2,
		},
		{
			name: "missing date",
			table: `title,part,category,index,date,layout_index
No Date,,,,,0
`,
			layouts:  1,
			wantType: apperrors.ErrTypeMissingField,
			wantRow:  1,
		},
		{
			name: "unknown layout on last row",
			table: `title,part,category,index,date,layout_index
One,,,,2023-01-01,0
Two,,,,2023-01-02,5
`,
			layouts:  2,
			wantType: apperrors.ErrTypeUnknownLayout,
			wantRow:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &recordingDocument{layouts: tt.layouts}
			logger, handler := testutil.NewTestLogger(t)
			g := NewGenerator(csvSource(tt.table), thumbnail.NewContentBuilder(org),
				WithLogger(logger),
				WithOutput(KindPresentation, doc, outPath(t, "out.pptx")))

			_, err := g.Run(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantRow, appErr.Context[apperrors.ContextRow])

			assert.Empty(t, doc.slides)
			assert.Empty(t, doc.saved)

			testutil.AssertLogContains(t, handler, slog.LevelError, "Generation aborted")
			testutil.AssertLogAttr(t, handler, "error_type", string(tt.wantType))
			assert.False(t, handler.ContainsMessage("Saved output"))
		})
	}
}

func TestGenerator_UnknownLayoutInAnyOutput(t *testing.T) {
	pptx := &recordingDocument{layouts: 3}
	preview := &recordingDocument{layouts: 1}
	g := NewGenerator(csvSource(videosTable), thumbnail.NewContentBuilder(org),
		WithLogger(quietLogger()),
		WithOutput(KindPresentation, pptx, outPath(t, "out.pptx")),
		WithOutput(KindPreview, preview, outPath(t, "previews")))

	_, err := g.Run(context.Background())
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrTypeUnknownLayout, appErr.Type)
	assert.Equal(t, KindPreview, appErr.Context["output"])
	assert.Equal(t, 1, appErr.Context[apperrors.ContextLayoutIndex])
	assert.Empty(t, pptx.saved)
}

func TestGenerator_SourceError(t *testing.T) {
	doc := &recordingDocument{layouts: 1}
	loadErr := apperrors.NewStorageError("boom", nil)
	g := NewGenerator(failingSource{err: loadErr}, thumbnail.NewContentBuilder(org),
		WithLogger(quietLogger()),
		WithOutput(KindPresentation, doc, outPath(t, "out.pptx")))

	result, err := g.Run(context.Background())
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, 0, result.Rows)
	assert.Empty(t, doc.saved)
}

func TestGenerator_SaveError(t *testing.T) {
	saveErr := errors.New("disk full")
	doc := &recordingDocument{layouts: 2, saveErr: saveErr}
	g := NewGenerator(csvSource(videosTable), thumbnail.NewContentBuilder(org),
		WithLogger(quietLogger()),
		WithOutput(KindPresentation, doc, outPath(t, "out.pptx")))

	result, err := g.Run(context.Background())
	assert.ErrorIs(t, err, saveErr)
	assert.Empty(t, result.Saved)
}

func TestGenerator_LaterSaveErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	pptx := &recordingDocument{layouts: 2}
	manifest := &recordingDocument{layouts: 2, saveErr: errors.New("disk full")}
	g := NewGenerator(csvSource(videosTable), thumbnail.NewContentBuilder(org),
		WithLogger(quietLogger()),
		WithOutput(KindPresentation, pptx, filepath.Join(dir, "thumbnails.pptx")),
		WithOutput(KindManifest, manifest, filepath.Join(dir, "slides.csv")))

	result, err := g.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, result.Saved)
	require.Len(t, pptx.saved, 1, "the presentation was rendered before the manifest failed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "neither the presentation nor any staged file may remain")
}

func TestGenerator_DryRun(t *testing.T) {
	doc := &recordingDocument{layouts: 1}
	g := NewGenerator(csvSource(videosTable), thumbnail.NewContentBuilder(org),
		WithLogger(quietLogger()),
		WithOutput(KindPresentation, doc, outPath(t, "out.pptx")))

	// layout 1 is out of range for doc but a dry run never checks layouts
	result, err := g.DryRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 0, result.Slides)
	assert.Len(t, result.Contents, 2)
	assert.Empty(t, doc.slides)
	assert.Empty(t, doc.saved)
}

func TestGenerator_KeepsTraceID(t *testing.T) {
	g := NewGenerator(csvSource(videosTable), thumbnail.NewContentBuilder(org), WithLogger(quietLogger()))

	ctx := infrastructure.WithTraceID(context.Background(), "run-42")
	result, err := g.DryRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-42", result.TraceID)
}

func TestGenerator_Telemetry(t *testing.T) {
	// shutdown must stop the batch span processor
	defer goleak.VerifyNone(t)

	var spans bytes.Buffer
	tel, err := infrastructure.InitTelemetry(
		config.TelemetryConfig{ServiceName: "thumbdeck", TraceExporter: "stdout"}, &spans, quietLogger())
	require.NoError(t, err)

	doc := &recordingDocument{layouts: 2}
	g := NewGenerator(csvSource(videosTable), thumbnail.NewContentBuilder(org),
		WithLogger(quietLogger()),
		WithTelemetry(tel),
		WithOutput(KindPresentation, doc, outPath(t, "out.pptx")))

	_, err = g.Run(context.Background())
	require.NoError(t, err)

	// metrics are gathered before shutdown stops the reader
	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, tel.WriteMetrics(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `output="pptx"`)

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.Contains(t, spans.String(), `"Name":"thumbdeck.generate"`)
	assert.Equal(t, 2, strings.Count(spans.String(), `"Name":"thumbdeck.slide"`))
}

func TestGenerator_PresentationAndPreviews(t *testing.T) {
	dir := t.TempDir()
	template, err := deck.DefaultTemplate(2)
	require.NoError(t, err)
	previews, err := deck.NewPreviewRenderer(template.LayoutCount(), nil)
	require.NoError(t, err)

	out := filepath.Join(dir, "thumbnails.pptx")
	g := NewGenerator(csvSource(videosTable), thumbnail.NewContentBuilder(org),
		WithLogger(quietLogger()),
		WithOutput(KindPresentation, template, out),
		WithOutput(KindPreview, previews, filepath.Join(dir, "previews")))

	result, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Saved, 2)

	saved, err := deck.OpenPresentation(out)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.SlideCount())

	for _, name := range []string{"slide-001.png", "slide-002.png"} {
		_, err := os.Stat(filepath.Join(dir, "previews", name))
		assert.NoError(t, err, name)
	}
}
