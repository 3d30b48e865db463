//go:build !windows

package wallpaper

func newPlatformSetter(command []string) Setter {
	return NewCommandSetter(command)
}
