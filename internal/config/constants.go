package config

// Application constants
const (
	AppName    = "thumbdeck"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces environment variables, e.g. THUMBDECK_DECK_SHEET.
	EnvPrefix = "THUMBDECK"
)

// Defaults reproduce the layout of the original video-thumbnail workspace.
const (
	DefaultOrganizationName = "UAB IT Research Computing"

	DefaultInputPath    = "res/thumbnails.csv"
	DefaultTemplatePath = "res/youtube-thumbnail-template.pptx"
	DefaultOutputPath   = "thumbnails.pptx"
	DefaultLogFile      = "logs/thumbdeck.log"

	// 16:9 slide size in EMU (13.333in x 7.5in).
	DefaultCanvasWidth  int64 = 12192000
	DefaultCanvasHeight int64 = 6858000

	// DefaultTemplateLayouts is the layout count of a generated template.
	DefaultTemplateLayouts = 4
)
