package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	// Database is the index file. Relative values resolve inside CacheDir.
	Database string `toml:"database"`
	LogDir   string `toml:"log_dir"`
}

// APOD contains configuration for the NASA APOD API.
type APOD struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Thumbnails     bool   `toml:"thumbnails"`
}

// Wallpaper contains configuration for setting the desktop background.
type Wallpaper struct {
	Enabled bool `toml:"enabled"`
	// Command is a shell-free command template; "{path}" and "{uri}" are
	// substituted with the image path. Ignored on Windows.
	Command []string `toml:"command"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for apod.
//
// Configuration sections by subsystem:
//   - Paths: image cache directory, index database, and optional log directory
//   - APOD: remote API credentials and request settings
//   - Wallpaper: desktop background integration
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	APOD      APOD      `toml:"apod"`
	Wallpaper Wallpaper `toml:"wallpaper"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the configuration at path, or the first existing file among the
// default locations when path is empty, and returns it normalized and
// validated along with the resolved location and whether that file existed.
// A missing file is not an error; defaults are used instead.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// decodeFile rejects unknown keys so typos in section or field names surface
// instead of silently falling back to defaults.
func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	dec := toml.NewDecoder(file).DisallowUnknownFields()
	err = dec.Decode(cfg)
	var strict *toml.StrictMissingError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &strict):
		keys := make([]string, 0, len(strict.Errors))
		for _, e := range strict.Errors {
			keys = append(keys, strings.Join(e.Key(), "."))
		}
		return fmt.Errorf("parse config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	default:
		return fmt.Errorf("parse config %s: %w", path, err)
	}
}

// locate resolves an explicit path, or searches the per-user location and
// then ./apod.toml. With nothing found it reports the per-user path.
func locate(path string) (string, bool, error) {
	var candidates []string
	if strings.TrimSpace(path) != "" {
		candidates = []string{path}
	} else {
		candidates = []string{defaultConfigPath, "apod.toml"}
	}

	var first string
	for i, candidate := range candidates {
		expanded, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if i == 0 {
			first = expanded
		}
		info, err := os.Stat(expanded)
		switch {
		case err == nil && !info.IsDir():
			return expanded, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return first, false, nil
}

// EnsureDirectories creates the image cache directory and, when configured,
// the log directory and the database's parent directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.CacheDir, filepath.Dir(c.DatabasePath())}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the absolute path of the cache index database.
func (c *Config) DatabasePath() string {
	db := strings.TrimSpace(c.Paths.Database)
	if db == "" {
		db = defaultDatabase
	}
	if filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(c.Paths.CacheDir, db)
}

// RequestTimeout returns the per-request timeout for APOD API calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.APOD.TimeoutSeconds) * time.Second
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}

// ExpandPath resolves a leading "~" to the home directory and returns an
// absolute, cleaned path. Empty input stays empty.
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", p, err)
		}
		p = filepath.Join(home, p[1:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", p, err)
	}
	return abs, nil
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "apod", "images")
	}
	return "~/.local/share/apod/images"
}

// CreateSample writes the commented sample configuration to path, creating
// its parent directory.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sample config: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("create sample config: %w", err)
	}
	return nil
}
