package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"apod/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
// The API check is skipped when api is nil.
func RunAll(ctx context.Context, cfg *config.Config, api InfoFetcher) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Index directory", filepath.Dir(cfg.DatabasePath())),
	}
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if api != nil {
		results = append(results, CheckAPI(ctx, api))
	}
	results = append(results, CheckWallpaperCommand(cfg.Wallpaper))
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
