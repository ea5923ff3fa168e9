package exporter

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"thumbdeck/internal/deck"
	apperrors "thumbdeck/internal/errors"
)

// ManifestHeaders are the columns of a slide manifest.
var ManifestHeaders = []string{"slide", "layout_index", "title", "subtitle"}

// Manifest is a deck.Document that records the text of every slide and
// saves it as a table, .csv or .xlsx by file extension.
type Manifest struct {
	layouts int
	slides  []*manifestSlide
}

type manifestSlide struct {
	layout   int
	title    string
	subtitle string
}

// NewManifest creates a manifest accepting layout indexes below layouts.
func NewManifest(layouts int) *Manifest {
	return &Manifest{layouts: layouts}
}

// LayoutCount returns the number of accepted layouts.
func (m *Manifest) LayoutCount() int {
	return m.layouts
}

// SetCanvasSize is a no-op; a manifest has no geometry.
func (m *Manifest) SetCanvasSize(deck.Canvas) {}

// AddSlide appends a manifest entry.
func (m *Manifest) AddSlide(layout int) (deck.Slide, error) {
	if layout < 0 || layout >= m.layouts {
		return nil, apperrors.NewUnknownLayoutError(layout, m.layouts)
	}
	s := &manifestSlide{layout: layout}
	m.slides = append(m.slides, s)
	return s, nil
}

// Records returns one row per slide in ManifestHeaders order.
func (m *Manifest) Records() [][]string {
	records := make([][]string, 0, len(m.slides))
	for i, s := range m.slides {
		records = append(records, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(s.layout),
			s.title,
			s.subtitle,
		})
	}
	return records
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		err = WriteCSV(path, WriteOptions{Headers: ManifestHeaders, Records: m.Records(), BOMPrefix: true})
	case ".xlsx":
		err = WriteXLSX(path, ManifestHeaders, m.Records())
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported manifest format %q", ext), nil).
			WithContext(apperrors.ContextPath, path)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to save manifest", err).
			WithContext(apperrors.ContextPath, path)
	}
	return nil
}

// SetPlaceholderText stores the title (0) or subtitle (1) of the slide.
func (s *manifestSlide) SetPlaceholderText(idx int, text string, _ deck.Points) error {
	switch idx {
	case deck.TitlePlaceholder:
		s.title = text
	case deck.SubtitlePlaceholder:
		s.subtitle = text
	default:
		return apperrors.NewTemplateError(fmt.Sprintf("placeholder %d not found on manifest", idx), nil).
			WithContext("placeholder", idx)
	}
	return nil
}
