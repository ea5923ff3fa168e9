// Package table loads the video metadata table from a CSV file or an Excel
// workbook into raw thumbnail records.
//
// The first row is the header. Columns are matched by name, case and
// surrounding whitespace ignored; unknown columns are skipped. All six
// thumbnail columns must be present in the header, although individual cells
// may be blank.
package table
