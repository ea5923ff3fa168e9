// Package config provides configuration management for thumbdeck.
// It loads settings from multiple sources, validates them, and exposes
// a typed Config to the rest of the application.
//
// # Configuration Sources
//
// Configuration is assembled in order of increasing precedence:
//
//	1. Built-in defaults (Default)
//	2. A YAML file passed to Load, or thumbdeck.yaml / configs/thumbdeck.yaml
//	3. Environment variables with the THUMBDECK_ prefix
//
// Command-line flags are applied by the caller after Load returns and are
// re-validated with Config.Validate.
//
// # Environment Variables
//
//	THUMBDECK_DECK_ORGANIZATION_NAME="UAB IT Research Computing"
//	THUMBDECK_DECK_TRUNCATE_FRACTIONS=true
//	THUMBDECK_PATHS_INPUT=res/thumbnails.xlsx
//	THUMBDECK_LOGGING_LEVEL=debug
//	THUMBDECK_TELEMETRY_TRACE_EXPORTER=stdout
//
// # YAML File
//
//	deck:
//	  organization_name: UAB IT Research Computing
//	  sheet: Videos
//	paths:
//	  input: res/thumbnails.csv
//	  template: res/youtube-thumbnail-template.pptx
//	  output: thumbnails.pptx
//	logging:
//	  level: info
//	  output: both
//	  file_path: logs/thumbdeck.log
//
// Unknown keys in the file are rejected.
package config
