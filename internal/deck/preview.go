package deck

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	apperrors "thumbdeck/internal/errors"
)

// PreviewWidth is the pixel width of rendered previews.
const PreviewWidth = 1280

// DefaultPreviewPalette colors preview backgrounds by layout index.
var DefaultPreviewPalette = []string{"#1E6B52", "#0B3D2E", "#2F3B45", "#8C6D1F", "#5B2A86", "#7A1F2B"}

// PreviewRenderer renders slides as PNG images, one file per slide.
type PreviewRenderer struct {
	layouts int
	palette []string
	canvas  Canvas
	slides  []*previewSlide

	regular *truetype.Font
	bold    *truetype.Font
}

// NewPreviewRenderer creates a renderer accepting layout indexes below
// layouts. An empty palette selects DefaultPreviewPalette.
func NewPreviewRenderer(layouts int, palette []string) (*PreviewRenderer, error) {
	if len(palette) == 0 {
		palette = DefaultPreviewPalette
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return &PreviewRenderer{
		layouts: layouts,
		palette: palette,
		canvas:  Canvas16x9,
		regular: regular,
		bold:    bold,
	}, nil
}

// LayoutCount returns the number of accepted layouts.
func (r *PreviewRenderer) LayoutCount() int {
	return r.layouts
}

// SetCanvasSize sets the aspect ratio and font scale of the previews.
func (r *PreviewRenderer) SetCanvasSize(c Canvas) {
	r.canvas = c
}

// AddSlide appends a preview slide.
func (r *PreviewRenderer) AddSlide(layout int) (Slide, error) {
	if layout < 0 || layout >= r.layouts {
		return nil, apperrors.NewUnknownLayoutError(layout, r.layouts)
	}
	s := &previewSlide{layout: layout, texts: make(map[int]slideText)}
	r.slides = append(r.slides, s)
	return s, nil
}

// Size returns the pixel dimensions of rendered previews.
func (r *PreviewRenderer) Size() (int, int) {
	if r.canvas.Width <= 0 || r.canvas.Height <= 0 {
		return PreviewWidth, PreviewWidth * 9 / 16
	}
	h := int(math.Round(float64(PreviewWidth) * float64(r.canvas.Height) / float64(r.canvas.Width)))
	return PreviewWidth, h
}

// Save renders every slide into dir as slide-001.png, slide-002.png, ...
func (r *PreviewRenderer) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create preview directory", err).
			WithContext(apperrors.ContextPath, dir)
	}
	for i, s := range r.slides {
		path := filepath.Join(dir, fmt.Sprintf("slide-%03d.png", i+1))
		if err := r.render(s).SavePNG(path); err != nil {
			return apperrors.NewStorageError("failed to write preview", err).
				WithContext(apperrors.ContextPath, path)
		}
	}
	slog.Info("Saved slide previews",
		slog.String("dir", dir),
		slog.Int("slides", len(r.slides)))
	return nil
}

func (r *PreviewRenderer) render(s *previewSlide) *gg.Context {
	w, h := r.Size()
	dc := gg.NewContext(w, h)

	dc.SetHexColor(r.palette[s.layout%len(r.palette)])
	dc.Clear()

	// pixels per point for the current canvas width
	scale := float64(w) / (float64(r.canvasWidth()) / EMUPerPoint)

	dc.SetRGB(1, 1, 1)
	if t, ok := s.texts[TitlePlaceholder]; ok && t.text != "" {
		dc.SetFontFace(r.face(r.bold, float64(t.size)*scale))
		dc.DrawStringWrapped(t.text, float64(w)/2, float64(h)*0.38, 0.5, 0.5, float64(w)*0.8, 1.2, gg.AlignCenter)
	}
	if t, ok := s.texts[SubtitlePlaceholder]; ok && t.text != "" {
		dc.SetFontFace(r.face(r.regular, float64(t.size)*scale))
		dc.DrawStringWrapped(t.text, float64(w)/2, float64(h)*0.68, 0.5, 0.5, float64(w)*0.8, 1.3, gg.AlignCenter)
	}
	return dc
}

func (r *PreviewRenderer) canvasWidth() int64 {
	if r.canvas.Width <= 0 {
		return Canvas16x9.Width
	}
	return r.canvas.Width
}

func (r *PreviewRenderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

type previewSlide struct {
	layout int
	texts  map[int]slideText
}

// SetPlaceholderText records text for the title (0) or subtitle (1) region.
func (s *previewSlide) SetPlaceholderText(idx int, text string, size Points) error {
	if idx != TitlePlaceholder && idx != SubtitlePlaceholder {
		return apperrors.NewTemplateError(fmt.Sprintf("placeholder %d not found on preview layout", idx), nil).
			WithContext("placeholder", idx)
	}
	s.texts[idx] = slideText{text: text, size: size}
	return nil
}
