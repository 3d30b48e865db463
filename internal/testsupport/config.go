package testsupport

import (
	"path/filepath"
	"testing"

	"apod/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Wallpaper integration is disabled unless a command is supplied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "images")
	cfgVal.Paths.Database = filepath.Join(base, "index", "image_cache.db")
	cfgVal.APOD.APIKey = "test"
	cfgVal.APOD.BaseURL = "http://127.0.0.1:0/planetary/apod"
	cfgVal.APOD.TimeoutSeconds = 5
	cfgVal.Wallpaper.Enabled = false
	cfgVal.Wallpaper.Command = nil

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIBaseURL points the APOD client at a test server.
func WithAPIBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.APOD.BaseURL = url
	}
}

// WithWallpaperCommand enables wallpaper integration with the given command.
func WithWallpaperCommand(command ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Wallpaper.Enabled = true
		b.cfg.Wallpaper.Command = command
	}
}

// WithLogDir enables file logging under the test directory.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LogDir = filepath.Join(b.baseDir, "logs")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}
