package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "thumbdeck/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Deck      DeckConfig      `yaml:"deck" envconfig:"DECK"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// DeckConfig controls how rows become slides.
type DeckConfig struct {
	OrganizationName  string   `yaml:"organization_name" envconfig:"ORGANIZATION_NAME" validate:"required"`
	CanvasWidth       int64    `yaml:"canvas_width" envconfig:"CANVAS_WIDTH" validate:"gt=0"`
	CanvasHeight      int64    `yaml:"canvas_height" envconfig:"CANVAS_HEIGHT" validate:"gt=0"`
	TruncateFractions bool     `yaml:"truncate_fractions" envconfig:"TRUNCATE_FRACTIONS"`
	Sheet             string   `yaml:"sheet" envconfig:"SHEET"`
	Timezone          string   `yaml:"timezone" envconfig:"TIMEZONE" validate:"omitempty,timezone"`
	PreviewPalette    []string `yaml:"preview_palette" envconfig:"PREVIEW_PALETTE" validate:"dive,hexcolor"`
}

// PathsConfig contains file system paths configuration. Relative paths are
// resolved against BaseDir.
type PathsConfig struct {
	BaseDir  string `yaml:"base_dir" envconfig:"BASE_DIR"`
	Input    string `yaml:"input" envconfig:"INPUT" validate:"required,ext=.csv .txt .xlsx .xlsm"`
	Template string `yaml:"template" envconfig:"TEMPLATE" validate:"required,ext=.pptx"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"required,ext=.pptx"`
	Previews string `yaml:"previews" envconfig:"PREVIEWS"`
	Manifest string `yaml:"manifest" envconfig:"MANIFEST" validate:"omitempty,ext=.csv .xlsx"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE" validate:"omitempty,ext=.prom"`
}

// Load builds the configuration from defaults, the YAML file at path (or the
// first one found in the usual locations when path is empty) and THUMBDECK_*
// environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext(apperrors.ContextPath, path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML document at filePath onto cfg. Keys absent
// from the file keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"thumbdeck.yaml",
		"configs/thumbdeck.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Resolve returns p joined to the base directory unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Paths.BaseDir == "" {
		return p
	}
	return filepath.Join(c.Paths.BaseDir, p)
}

// Validate checks the configuration and reports every failing field.
func (c *Config) Validate() error {
	return validate(c)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Deck: DeckConfig{
			OrganizationName: DefaultOrganizationName,
			CanvasWidth:      DefaultCanvasWidth,
			CanvasHeight:     DefaultCanvasHeight,
		},
		Paths: PathsConfig{
			Input:    DefaultInputPath,
			Template: DefaultTemplatePath,
			Output:   DefaultOutputPath,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   AppName,
			TraceExporter: "none",
		},
	}
}

// String renders the effective configuration as YAML.
func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", *c)
	}
	return string(out)
}
