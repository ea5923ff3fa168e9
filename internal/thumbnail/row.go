package thumbnail

import "time"

// Input column names.
const (
	ColumnTitle       = "title"
	ColumnPart        = "part"
	ColumnCategory    = "category"
	ColumnIndex       = "index"
	ColumnDate        = "date"
	ColumnLayoutIndex = "layout_index"
)

// Columns lists every input column in table order.
var Columns = []string{
	ColumnTitle,
	ColumnPart,
	ColumnCategory,
	ColumnIndex,
	ColumnDate,
	ColumnLayoutIndex,
}

// DateLayout is the subtitle date format.
const DateLayout = "2006-01-02"

// Record is one raw table row as read from a source.
type Record struct {
	// Position is the 1-based data row number, header excluded.
	Position int
	Cells    map[string]string
}

// Cell returns the raw text of a column, or "" when the column is absent.
func (r Record) Cell(column string) string {
	return r.Cells[column]
}

// Row is a normalized record ready for content derivation.
type Row struct {
	Position    int
	Title       string
	Part        Optional[int]
	Category    Optional[string]
	Index       Optional[int]
	Date        time.Time
	LayoutIndex int
}

// Content is the derived text for one slide.
type Content struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}
