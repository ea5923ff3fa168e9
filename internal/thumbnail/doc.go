// Package thumbnail derives the text of one thumbnail slide from one row of
// video metadata.
//
// Two steps run in order:
//
//	rows, err := thumbnail.Preprocess(records, thumbnail.PreprocessOptions{})
//	builder := thumbnail.NewContentBuilder("UAB IT Research Computing")
//	for _, row := range rows {
//	    content := builder.Build(row)
//	}
//
// Preprocess coerces the whole table up front so that a malformed cell fails
// the run before any slide exists. Build is pure: the same Row always yields
// the same Content.
package thumbnail
