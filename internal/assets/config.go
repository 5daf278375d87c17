package assets

import "fmt"

// Mode selects production or development build settings.
type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeProduction, ModeDevelopment:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

type Config struct {
	// Project root; relative paths below are resolved against it
	Root string
	// Build mode
	Mode Mode
	// Entry points, glob patterns allowed (e.g., "src/index.js")
	EntryPoints []string
	// Output directory for built files
	OutputDir string
	// URL prefix the output directory is served under
	PublicPath string
	// HTML template rendered into index.html, empty to skip
	HTMLTemplate string
	// Output naming templates, relative to OutputDir
	EntryNames string
	ChunkNames string
	AssetNames string
	// Images at or below this many bytes are inlined as data URLs
	InlineLimit int64
	// Group label for third-party chunks
	VendorGroup string
	// Global replacements applied to source code
	Defines map[string]string
	// Path to metafile
	MetafilePath string
	// Path to chunk manifest
	ManifestPath string
}

// DefaultConfig returns the settings of a standard React single page app
func DefaultConfig() Config {
	return Config{
		Root:         ".",
		Mode:         ModeProduction,
		EntryPoints:  []string{"src/index.js"},
		OutputDir:    "dist",
		PublicPath:   "/",
		HTMLTemplate: "public/index.html",
		EntryNames:   "assets/js/[name].[hash]",
		ChunkNames:   "assets/js/[name].[hash]",
		AssetNames:   "static/media/[name].[hash]",
		InlineLimit:  8192,
		VendorGroup:  "vendors",
		MetafilePath: "dist/meta.json",
		ManifestPath: "dist/chunks.json",
	}
}

// Production reports whether output should be minified and stripped of source maps.
func (c Config) Production() bool {
	return c.Mode == ModeProduction
}
