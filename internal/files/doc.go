// Package files provides path resolution and atomic writes for generated
// documents. A half-written deck never replaces an existing one.
package files
