package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"runtime"
	"time"

	"apod/internal/apod"
	"apod/internal/config"
)

const apiCheckTimeout = 10 * time.Second

// InfoFetcher is the part of the APOD client the API check needs.
type InfoFetcher interface {
	Info(ctx context.Context, date time.Time) (apod.Info, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkReadWrite(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckAPI requests the first APOD entry, which always exists, to confirm the
// endpoint is reachable and the key is accepted. A single attempt is made.
func CheckAPI(ctx context.Context, api InfoFetcher) Result {
	const name = "APOD API"

	checkCtx, cancel := context.WithTimeout(ctx, apiCheckTimeout)
	defer cancel()

	info, err := api.Info(checkCtx, apod.FirstDate)
	if err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%s: %s)", apod.FormatDate(apod.FirstDate), info.Title)}
}

// CheckWallpaperCommand verifies the configured wallpaper program is on PATH.
func CheckWallpaperCommand(cfg config.Wallpaper) Result {
	const name = "Wallpaper"

	if !cfg.Enabled {
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}
	if len(cfg.Command) == 0 {
		if runtime.GOOS == "windows" {
			return Result{Name: name, Passed: true, Detail: "SystemParametersInfoW"}
		}
		return Result{Name: name, Detail: "no command configured for " + runtime.GOOS}
	}
	binary := cfg.Command[0]
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", binary)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out (APOD API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (APOD API unreachable)"
	}
	return err.Error()
}
