// Package errors defines the typed application errors raised while turning a
// metadata table into a slide deck.
//
// Every failure is fatal for the run. Errors carry enough context (row
// position, column, offending value, layout index) to locate the bad record:
//
//	err := errors.NewMalformedInputError(3, "part", "two", cause)
//	// [MALFORMED_INPUT] malformed value in column "part" (column=part, row=3, value=two): ...
//
// Use IsType to classify an error anywhere in a wrapped chain.
package errors
