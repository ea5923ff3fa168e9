package thumbnail

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	apperrors "thumbdeck/internal/errors"
)

// naValues mirrors the markers spreadsheet tooling writes for a missing cell.
var naValues = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a raw cell represents an absent value.
func IsMissing(raw string) bool {
	_, ok := naValues[strings.TrimSpace(raw)]
	return ok
}

// PreprocessOptions tunes numeric coercion.
type PreprocessOptions struct {
	// TruncateFractions casts non-integral part/index values toward zero
	// instead of rejecting them as malformed.
	TruncateFractions bool
	// Location is used for dates without an explicit offset. Defaults to UTC.
	Location *time.Location
}

// Preprocess normalizes every record of the table. The first bad cell aborts
// the whole table with an *errors.AppError naming the row and column.
func Preprocess(records []Record, opts PreprocessOptions) ([]Row, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row, err := normalize(rec, opts.TruncateFractions, loc)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalize(rec Record, truncate bool, loc *time.Location) (Row, error) {
	row := Row{Position: rec.Position}

	title := rec.Cell(ColumnTitle)
	if IsMissing(title) {
		return Row{}, apperrors.NewMissingFieldError(rec.Position, ColumnTitle)
	}
	row.Title = title

	var err error
	if row.Part, err = optionalInt(rec, ColumnPart, truncate); err != nil {
		return Row{}, err
	}
	if row.Index, err = optionalInt(rec, ColumnIndex, truncate); err != nil {
		return Row{}, err
	}

	if category := rec.Cell(ColumnCategory); !IsMissing(category) {
		row.Category = Some(category)
	}

	rawDate := rec.Cell(ColumnDate)
	if IsMissing(rawDate) {
		return Row{}, apperrors.NewMissingFieldError(rec.Position, ColumnDate)
	}
	row.Date, err = parseDate(rawDate, loc)
	if err != nil {
		return Row{}, apperrors.NewMalformedInputError(rec.Position, ColumnDate, rawDate, err)
	}

	rawLayout := rec.Cell(ColumnLayoutIndex)
	if IsMissing(rawLayout) {
		return Row{}, apperrors.NewMissingFieldError(rec.Position, ColumnLayoutIndex)
	}
	layout, err := toInt(rawLayout, false)
	if err != nil {
		return Row{}, apperrors.NewMalformedInputError(rec.Position, ColumnLayoutIndex, rawLayout, err)
	}
	if layout < 0 {
		return Row{}, apperrors.NewMalformedInputError(rec.Position, ColumnLayoutIndex, rawLayout,
			fmt.Errorf("layout index must not be negative"))
	}
	row.LayoutIndex = layout

	return row, nil
}

// Calendar range representable by the nanosecond timestamps spreadsheet
// tooling uses for dates.
const (
	minDateYear = 1677
	maxDateYear = 2262
)

// parseDate reads a calendar date. Bare numbers are refused: dateparse would
// read them as epoch seconds, a lone year or a day of year 0.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if isNumeric(raw) {
		return time.Time{}, fmt.Errorf("bare number is not a calendar date")
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	if y := t.Year(); y < minDateYear || y > maxDateYear {
		return time.Time{}, fmt.Errorf("year %d outside %d-%d", y, minDateYear, maxDateYear)
	}
	return t, nil
}

func isNumeric(raw string) bool {
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

func optionalInt(rec Record, column string, truncate bool) (Optional[int], error) {
	raw := rec.Cell(column)
	if IsMissing(raw) {
		return None[int](), nil
	}
	v, err := toInt(raw, truncate)
	if err != nil {
		return None[int](), apperrors.NewMalformedInputError(rec.Position, column, raw, err)
	}
	return Some(v), nil
}

// maxExactInt is the largest magnitude a float64 holds without losing digits.
const maxExactInt = 1 << 53

// toInt coerces a numeric cell. Integral floats such as "2.0" are accepted.
func toInt(raw string, truncate bool) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	whole := math.Trunc(f)
	if whole != f && !truncate {
		return 0, fmt.Errorf("non-integral value %v", f)
	}
	if math.Abs(whole) > maxExactInt || whole > float64(math.MaxInt) || whole < float64(math.MinInt) {
		return 0, fmt.Errorf("value %v out of range", f)
	}
	return int(whole), nil
}
