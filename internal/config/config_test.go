package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"apod/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndUsesDemoKey(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("APOD_API_KEY", "")
	t.Setenv("NASA_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "apod", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}

	wantCache := filepath.Join(tempHome, ".local", "share", "apod", "images")
	if cfg.Paths.CacheDir != wantCache {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, wantCache)
	}
	if got := cfg.DatabasePath(); got != filepath.Join(wantCache, "image_cache.db") {
		t.Fatalf("unexpected database path: %q", got)
	}
	if cfg.APOD.APIKey != "DEMO_KEY" {
		t.Fatalf("expected DEMO_KEY fallback, got %q", cfg.APOD.APIKey)
	}
	if cfg.APOD.BaseURL != "https://api.nasa.gov/planetary/apod" {
		t.Fatalf("unexpected base url: %q", cfg.APOD.BaseURL)
	}
	if !cfg.APOD.Thumbnails {
		t.Fatal("expected thumbnails enabled by default")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadUsesEnvAPIKeyOrder(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	t.Setenv("APOD_API_KEY", "")
	t.Setenv("NASA_API_KEY", "nasa-key")
	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APOD.APIKey != "nasa-key" {
		t.Fatalf("expected NASA_API_KEY, got %q", cfg.APOD.APIKey)
	}

	t.Setenv("APOD_API_KEY", "apod-key")
	cfg, _, _, err = config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APOD.APIKey != "apod-key" {
		t.Fatalf("expected APOD_API_KEY to win, got %q", cfg.APOD.APIKey)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	path := filepath.Join(dir, "config.toml")

	type payload struct {
		Paths struct {
			CacheDir string `toml:"cache_dir"`
			Database string `toml:"database"`
		} `toml:"paths"`
		APOD struct {
			APIKey         string `toml:"api_key"`
			BaseURL        string `toml:"base_url"`
			TimeoutSeconds int    `toml:"timeout_seconds"`
		} `toml:"apod"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	var p payload
	p.Paths.CacheDir = cacheDir
	p.Paths.Database = "index.sqlite"
	p.APOD.APIKey = "file-key"
	p.APOD.BaseURL = "http://127.0.0.1:9999/apod/"
	p.APOD.TimeoutSeconds = 5
	p.Logging.Format = "JSON"
	p.Logging.Level = "DEBUG"
	data, err := toml.Marshal(p)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.DatabasePath() != filepath.Join(cacheDir, "index.sqlite") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.APOD.BaseURL != "http://127.0.0.1:9999/apod" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APOD.BaseURL)
	}
	if cfg.RequestTimeout().Seconds() != 5 {
		t.Fatalf("unexpected timeout: %v", cfg.RequestTimeout())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[paths]\ncache_directory = \"/tmp/x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "cache_directory") {
		t.Fatalf("expected unknown key in error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"empty key", func(c *config.Config) { c.APOD.APIKey = "" }, "apod.api_key"},
		{"relative url", func(c *config.Config) { c.APOD.BaseURL = "planetary/apod" }, "apod.base_url"},
		{"ftp url", func(c *config.Config) { c.APOD.BaseURL = "ftp://example.com/apod" }, "http or https"},
		{"zero timeout", func(c *config.Config) { c.APOD.TimeoutSeconds = -1 }, "apod.timeout_seconds"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"empty cache dir", func(c *config.Config) { c.Paths.CacheDir = "" }, "paths.cache_dir"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.APOD.APIKey = "key"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestDatabasePathAbsolute(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.CacheDir = "/var/cache/apod"
	cfg.Paths.Database = "/srv/apod/index.db"
	if got := cfg.DatabasePath(); got != "/srv/apod/index.db" {
		t.Fatalf("expected absolute database path to be kept, got %q", got)
	}
}

func TestEnsureDirectoriesCreatesCacheDir(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "images")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	cfg := config.Default()
	cfg.APOD.APIKey = "key"
	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	for _, want := range []string{"[paths]", "cache_dir", "[apod]", "api_key"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in encoded config:\n%s", want, out)
		}
	}
}
