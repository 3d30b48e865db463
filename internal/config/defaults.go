package config

import "runtime"

const (
	defaultConfigPath     = "~/.config/apod/config.toml"
	defaultDatabase       = "image_cache.db"
	defaultAPIKey         = "DEMO_KEY"
	defaultBaseURL        = "https://api.nasa.gov/planetary/apod"
	defaultTimeoutSeconds = 30
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir(),
			Database: defaultDatabase,
		},
		APOD: APOD{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeoutSeconds,
			Thumbnails:     true,
		},
		Wallpaper: Wallpaper{
			Enabled: true,
			Command: defaultWallpaperCommand(runtime.GOOS),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultWallpaperCommand(goos string) []string {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"gsettings", "set", "org.gnome.desktop.background", "picture-uri", "{uri}"}
	case "darwin":
		return []string{"osascript", "-e", `tell application "System Events" to tell every desktop to set picture to "{path}"`}
	default:
		return nil
	}
}
