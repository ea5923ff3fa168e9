package deck

// Points is a font size in typographic points.
type Points float64

// EMUPerPoint converts points to English Metric Units.
const EMUPerPoint = 12700

// Placeholder indexes filled on every thumbnail slide.
const (
	TitlePlaceholder    = 0
	SubtitlePlaceholder = 1
)

// Font sizes for the two text regions.
const (
	TitleFontSize    Points = 48
	SubtitleFontSize Points = 24
)

// Canvas is the slide size in EMU.
type Canvas struct {
	Width  int64
	Height int64
}

// Canvas16x9 is the widescreen PowerPoint slide size (13.333in x 7.5in).
var Canvas16x9 = Canvas{Width: 12192000, Height: 6858000}

// Document is a slide deck under construction.
type Document interface {
	// LayoutCount returns the number of layouts slides can be created from.
	LayoutCount() int
	// AddSlide appends a slide using the layout at index.
	AddSlide(layout int) (Slide, error)
	// SetCanvasSize fixes the slide dimensions of the saved document.
	SetCanvasSize(c Canvas)
	// Save persists the document.
	Save(path string) error
}

// Slide is one slide of a Document.
type Slide interface {
	// SetPlaceholderText replaces the text of placeholder idx. Each line of
	// text becomes a paragraph rendered at size.
	SetPlaceholderText(idx int, text string, size Points) error
}
