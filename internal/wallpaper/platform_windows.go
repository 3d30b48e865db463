//go:build windows

package wallpaper

import (
	"context"
	"unsafe"

	"golang.org/x/sys/windows"

	"apod/internal/services"
)

const (
	spiSetDeskWallpaper = 0x0014
	spifUpdateIniFile   = 0x01
	spifSendChange      = 0x02
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procSystemParametersInfo = user32.NewProc("SystemParametersInfoW")
)

// systemSetter calls SystemParametersInfoW. A configured command still wins
// so users can route through third-party tools.
type systemSetter struct {
	command Setter
}

func newPlatformSetter(command []string) Setter {
	if len(command) > 0 {
		return &systemSetter{command: NewCommandSetter(command)}
	}
	return &systemSetter{}
}

func (s *systemSetter) Set(ctx context.Context, path string) error {
	if s.command != nil {
		return s.command.Set(ctx, path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := procSystemParametersInfo.Find(); err != nil {
		return services.Wrap(services.ErrUnsupported, "wallpaper", "set", "SystemParametersInfoW unavailable", err)
	}
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "wallpaper", "set", "encode path", err)
	}
	ret, _, callErr := procSystemParametersInfo.Call(
		uintptr(spiSetDeskWallpaper),
		0,
		uintptr(unsafe.Pointer(ptr)),
		uintptr(spifUpdateIniFile|spifSendChange),
	)
	if ret == 0 {
		return services.Wrap(services.ErrExternalTool, "wallpaper", "set", "SystemParametersInfoW failed", callErr)
	}
	return nil
}
