// Package config loads the project build configuration from webbuild.yaml.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webbuild/internal/assets"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the project root.
const DefaultPath = "webbuild.yaml"

type Config struct {
	Mode        string          `yaml:"mode"`
	Entry       []string        `yaml:"entry"`
	OutputDir   string          `yaml:"output_dir"`
	PublicPath  string          `yaml:"public_path"`
	Template    string          `yaml:"template"`
	InlineLimit int64           `yaml:"inline_limit"`
	Dotenv      string          `yaml:"dotenv"`
	VendorGroup string          `yaml:"vendor_group"`
	Lint        LintConfig      `yaml:"lint"`
	DevServer   DevServerConfig `yaml:"dev_server"`
}

type LintConfig struct {
	// Command and arguments; empty disables linting
	Command []string `yaml:"command"`
	// Fail the build when the linter exits non-zero
	FailOnError bool `yaml:"fail_on_error"`
}

type DevServerConfig struct {
	Listen             string   `yaml:"listen"`
	Compress           bool     `yaml:"compress"`
	HistoryAPIFallback bool     `yaml:"history_api_fallback"`
	ErrorOverlay       bool     `yaml:"error_overlay"`
	CORSOrigins        []string `yaml:"cors_origins"`
	Watch              []string `yaml:"watch"`
}

// Default mirrors the settings of a stock React single page app build.
func Default() Config {
	a := assets.DefaultConfig()
	return Config{
		Mode:        string(a.Mode),
		Entry:       a.EntryPoints,
		OutputDir:   a.OutputDir,
		PublicPath:  a.PublicPath,
		Template:    a.HTMLTemplate,
		InlineLimit: a.InlineLimit,
		Dotenv:      ".env",
		VendorGroup: a.VendorGroup,
		Lint: LintConfig{
			Command:     []string{"npx", "eslint", "--ext", ".js,.jsx", "src"},
			FailOnError: false,
		},
		DevServer: DevServerConfig{
			Listen:             "127.0.0.1:8080",
			Compress:           true,
			HistoryAPIFallback: true,
			ErrorOverlay:       true,
			Watch:              []string{"src", "public"},
		},
	}
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("path", path).Msg("No config file, using defaults")
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the build cannot use.
func (c Config) Validate() error {
	if _, err := assets.ParseMode(c.Mode); err != nil {
		return err
	}
	if len(c.Entry) == 0 {
		return errors.New("at least one entry point is required (entry)")
	}
	if c.OutputDir == "" {
		return errors.New("output directory is required (output_dir)")
	}
	if c.InlineLimit < 0 {
		return fmt.Errorf("inline_limit must not be negative, got %d", c.InlineLimit)
	}
	if c.VendorGroup == "" {
		return errors.New("vendor group label is required (vendor_group)")
	}
	return nil
}

// Assets converts the configuration into pipeline settings for root.
func (c Config) Assets(root string, defines map[string]string) assets.Config {
	a := assets.DefaultConfig()
	a.Root = root
	a.Mode = assets.Mode(c.Mode)
	a.EntryPoints = c.Entry
	a.OutputDir = c.OutputDir
	a.PublicPath = c.PublicPath
	a.HTMLTemplate = c.Template
	a.InlineLimit = c.InlineLimit
	a.VendorGroup = c.VendorGroup
	a.Defines = defines
	a.MetafilePath = filepath.Join(c.OutputDir, "meta.json")
	a.ManifestPath = filepath.Join(c.OutputDir, "chunks.json")
	return a
}
