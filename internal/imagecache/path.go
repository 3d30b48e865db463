package imagecache

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"apod/internal/textutil"
)

const (
	defaultExtension = ".jpg"
	untitledName     = "untitled"
	// maxNameBytes keeps generated names well under the usual 255 byte limit
	// once an extension and collision suffix are appended.
	maxNameBytes = 200
)

// ResolvePath derives the cache file path for an image: the sanitized title
// plus the extension of sourceURL's path, inside dir. It performs no I/O.
func ResolvePath(dir, title, sourceURL string) string {
	return filepath.Join(dir, SanitizeTitle(title)+FileExtension(sourceURL))
}

// SanitizeTitle turns a display title into a file name stem.
func SanitizeTitle(title string) string {
	name := textutil.SanitizeFileName(title)
	name = truncateBytes(name, maxNameBytes)
	if name == "" || strings.Trim(name, ".") == "" {
		return untitledName
	}
	return name
}

// FileExtension returns the lowercase extension of the URL's path component,
// or ".jpg" when it has none. Query strings and fragments are ignored.
func FileExtension(sourceURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil {
		return defaultExtension
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	if !validExtension(ext) {
		return defaultExtension
	}
	return ext
}

func validExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

// withSuffix inserts suffix between the stem and extension of p.
func withSuffix(p, suffix string) string {
	ext := filepath.Ext(p)
	return strings.TrimSuffix(p, ext) + suffix + ext
}
