package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPOD()
	c.normalizeWallpaper()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(strings.TrimSpace(c.Paths.CacheDir)); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	c.Paths.Database = strings.TrimSpace(c.Paths.Database)
	if c.Paths.Database == "" {
		c.Paths.Database = defaultDatabase
	}
	if strings.HasPrefix(c.Paths.Database, "~") {
		if c.Paths.Database, err = expandPath(c.Paths.Database); err != nil {
			return fmt.Errorf("paths.database: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeAPOD() {
	c.APOD.APIKey = strings.TrimSpace(c.APOD.APIKey)
	if c.APOD.APIKey == "" {
		if value, ok := os.LookupEnv("APOD_API_KEY"); ok && strings.TrimSpace(value) != "" {
			c.APOD.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("NASA_API_KEY"); ok && strings.TrimSpace(value) != "" {
			c.APOD.APIKey = strings.TrimSpace(value)
		} else {
			c.APOD.APIKey = defaultAPIKey
		}
	}
	c.APOD.BaseURL = strings.TrimRight(strings.TrimSpace(c.APOD.BaseURL), "/")
	if c.APOD.BaseURL == "" {
		c.APOD.BaseURL = defaultBaseURL
	}
	if c.APOD.TimeoutSeconds == 0 {
		c.APOD.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeWallpaper() {
	cmd := make([]string, 0, len(c.Wallpaper.Command))
	for _, part := range c.Wallpaper.Command {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cmd = append(cmd, trimmed)
		}
	}
	c.Wallpaper.Command = cmd
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
