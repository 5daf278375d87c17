package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/webbuild/internal/assets"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), DefaultPath))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("empty file returns defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("overrides selected fields", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
mode: development
entry:
  - src/main.jsx
  - src/admin.jsx
inline_limit: 4096
dev_server:
  listen: 0.0.0.0:3000
  cors_origins: ["http://localhost:5173"]
`))
		require.NoError(t, err)
		assert.Equal(t, "development", cfg.Mode)
		assert.Equal(t, []string{"src/main.jsx", "src/admin.jsx"}, cfg.Entry)
		assert.Equal(t, int64(4096), cfg.InlineLimit)
		assert.Equal(t, "0.0.0.0:3000", cfg.DevServer.Listen)
		assert.Equal(t, []string{"http://localhost:5173"}, cfg.DevServer.CORSOrigins)

		// untouched fields keep defaults
		assert.Equal(t, "dist", cfg.OutputDir)
		assert.True(t, cfg.DevServer.Compress)
		assert.True(t, cfg.DevServer.HistoryAPIFallback)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, "minify: true\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "minify")
	})

	t.Run("invalid mode is rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, "mode: staging\n"))
		require.ErrorIs(t, err, assets.ErrUnknownMode)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{name: "no entries", modify: func(c *Config) { c.Entry = nil }, errMsg: "entry"},
		{name: "no output dir", modify: func(c *Config) { c.OutputDir = "" }, errMsg: "output_dir"},
		{name: "negative inline limit", modify: func(c *Config) { c.InlineLimit = -1 }, errMsg: "inline_limit"},
		{name: "empty vendor group", modify: func(c *Config) { c.VendorGroup = "" }, errMsg: "vendor_group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestAssets(t *testing.T) {
	cfg := Default()
	cfg.Mode = "development"
	cfg.OutputDir = "build"

	defines := map[string]string{"process.env.REACT_ENV_A": `"1"`}
	a := cfg.Assets("/project", defines)

	assert.Equal(t, "/project", a.Root)
	assert.Equal(t, assets.ModeDevelopment, a.Mode)
	assert.Equal(t, "build", a.OutputDir)
	assert.Equal(t, filepath.Join("build", "meta.json"), a.MetafilePath)
	assert.Equal(t, filepath.Join("build", "chunks.json"), a.ManifestPath)
	assert.Equal(t, defines, a.Defines)
	assert.Equal(t, "vendors", a.VendorGroup)
}
