// Package validation checks file system paths before a generation run reads
// or writes them, reporting problems as typed application errors.
package validation
