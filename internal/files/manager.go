package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Manager resolves input and output paths against a base directory and
// writes output files atomically.
type Manager struct {
	baseDir string
}

// NewManager creates a new file manager rooted at baseDir. An empty baseDir
// means the current working directory.
func NewManager(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// Resolve returns path unchanged when absolute, otherwise joined to the base directory.
func (m *Manager) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || m.baseDir == "" {
		return path
	}
	return filepath.Join(m.baseDir, path)
}

// FileExists checks if a regular file exists at the given path
func (m *Manager) FileExists(path string) bool {
	fullPath := m.Resolve(path)
	info, err := os.Stat(fullPath)
	exists := err == nil && !info.IsDir()

	slog.Debug("FileExists check",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Bool("exists", exists))

	return exists
}

// WriteAtomic writes through write into a temporary file next to path and
// renames it into place. On error the destination is left untouched.
func WriteAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	slog.Info("Wrote file", slog.String("path", path))
	return nil
}

// StagingPath returns a hidden sibling of path that keeps its base name, so
// writers choosing a format by extension behave the same on the staged copy.
func StagingPath(path string) string {
	return filepath.Join(filepath.Dir(path), fmt.Sprintf(".stage-%s-%s", uuid.NewString()[:8], filepath.Base(path)))
}

// Commit moves a staged file or directory into place at path. A staged
// directory is merged into path entry by entry, replacing same-named files.
func Commit(staged, path string) error {
	info, err := os.Stat(staged)
	if err != nil {
		return fmt.Errorf("staged output missing: %w", err)
	}
	if !info.IsDir() {
		if err := os.Rename(staged, path); err != nil {
			return fmt.Errorf("failed to move file into place: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	entries, err := os.ReadDir(staged)
	if err != nil {
		return fmt.Errorf("failed to read staged directory: %w", err)
	}
	for _, e := range entries {
		if err := os.Rename(filepath.Join(staged, e.Name()), filepath.Join(path, e.Name())); err != nil {
			return fmt.Errorf("failed to move %s into place: %w", e.Name(), err)
		}
	}
	return os.Remove(staged)
}

// Discard removes staged output. Missing paths are ignored.
func Discard(staged ...string) {
	for _, p := range staged {
		if err := os.RemoveAll(p); err != nil {
			slog.Warn("Failed to remove staged output",
				slog.String("path", p),
				slog.String("error", err.Error()))
		}
	}
}
