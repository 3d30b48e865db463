// Package wallpaper sets a cached image as the desktop background.
//
// Windows uses the user32 SystemParametersInfoW call directly. Every other
// platform runs a configurable command template in which "{path}" expands to
// the absolute image path and "{uri}" to its file:// URI. Setter failures are
// reported to the caller and never affect the image cache.
package wallpaper
