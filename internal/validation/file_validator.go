package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	apperrors "thumbdeck/internal/errors"
)

// Supported file extensions.
var (
	TableExtensions    = []string{".csv", ".txt", ".xlsx", ".xlsm"}
	TemplateExtensions = []string{".pptx"}
)

// FileValidator checks input and output paths before a run touches them.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path names an existing, readable regular file.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewStorageError("file does not exist", err).
			WithContext(apperrors.ContextPath, path)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to stat file", err).
			WithContext(apperrors.ContextPath, path)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewStorageError("path is a directory, not a file", nil).
			WithContext(apperrors.ContextPath, path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("file is not readable", err).
			WithContext(apperrors.ContextPath, path)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateTableFile checks the metadata table. Excel owner files ("~$name.xlsx")
// are rejected since they hold a lock record rather than a workbook.
func (v *FileValidator) ValidateTableFile(path string) error {
	if err := v.checkExtension(path, TableExtensions); err != nil {
		return err
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary Excel file",
			slog.String("file", path))
		return apperrors.NewValidationError("file is a temporary Excel lock file", nil).
			WithContext(apperrors.ContextPath, path)
	}
	return v.ValidateFile(path)
}

// ValidateTemplateFile checks the presentation template.
func (v *FileValidator) ValidateTemplateFile(path string) error {
	if err := v.checkExtension(path, TemplateExtensions); err != nil {
		return err
	}
	return v.ValidateFile(path)
}

// ValidateOutputPath checks that path can later be written: if it exists it
// must not be a directory, and its nearest existing ancestor must be one.
// Nothing is created.
func (v *FileValidator) ValidateOutputPath(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewStorageError("output path is a directory", nil).
			WithContext(apperrors.ContextPath, path)
	}

	dir := filepath.Dir(path)
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				v.logger.Error("Output parent is not a directory",
					slog.String("path", path),
					slog.String("parent", dir))
				return apperrors.NewStorageError(fmt.Sprintf("%s is not a directory", dir), nil).
					WithContext(apperrors.ContextPath, path)
			}
			break
		}
		if !os.IsNotExist(err) {
			return apperrors.NewStorageError("failed to stat output directory", err).
				WithContext(apperrors.ContextPath, path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	v.logger.Debug("Output path validated",
		slog.String("path", path))
	return nil
}

// ValidateOutputDirectory checks a directory destination such as the preview
// folder. A missing directory is fine.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		v.logger.Error("Output path is not a directory",
			slog.String("directory", dir))
		return apperrors.NewStorageError("output path is not a directory", nil).
			WithContext(apperrors.ContextPath, dir)
	}
	return v.ValidateOutputPath(filepath.Join(dir, "probe"))
}

func (v *FileValidator) checkExtension(path string, allowed []string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if slices.Contains(allowed, ext) {
		return nil
	}
	v.logger.Error("Unsupported file extension",
		slog.String("file", path),
		slog.String("extension", ext))
	return apperrors.NewValidationError(
		fmt.Sprintf("unsupported file extension %q, expected one of %s", ext, strings.Join(allowed, " ")), nil).
		WithContext(apperrors.ContextPath, path)
}
