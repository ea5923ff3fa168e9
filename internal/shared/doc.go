// Package shared holds helpers used by more than one package.
//
// The testutil subpackage captures slog output so tests can assert on what a
// component logged:
//
//	logger, handler := testutil.NewTestLogger(t)
//	g := app.NewGenerator(source, builder, app.WithLogger(logger))
//	...
//	testutil.AssertLogContains(t, handler, slog.LevelError, "Generation aborted")
//	testutil.AssertLogAttr(t, handler, "error_type", "MALFORMED_INPUT")
package shared
