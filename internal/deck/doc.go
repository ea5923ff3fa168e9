// Package deck is the slide document layer: it instantiates slides from the
// layouts of a template, fills their placeholders and persists the result.
//
// Two Document implementations exist. Presentation edits an Office Open XML
// (.pptx) package directly: slides are appended to a copy of the template's
// parts and the package is written atomically on Save. PreviewRenderer draws
// the same slides as PNG images, which is handy for checking thumbnails
// without opening PowerPoint.
//
// Nothing is written to disk until Save, so a run that fails half way leaves
// no partial output behind.
package deck
