// Package app runs the row-to-slide pipeline.
//
// A Generator reads records from a table.Source, normalizes them with
// thumbnail.Preprocess, derives one thumbnail.Content per row and writes
// each into every configured deck.Document:
//
//	source -> Preprocess -> ContentBuilder -> Document.AddSlide -> Save
//
// The pass is sequential and preserves row order. Every row is validated,
// including its layout index against each output, before any document is
// saved, so a failed run leaves no output behind.
//
// Each run carries a trace ID in its context and an OpenTelemetry span with
// one child span per slide.
package app
