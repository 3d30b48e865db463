package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer removes characters that are illegal in file names on
// common filesystems.
var fileNameReplacer = strings.NewReplacer(
	"\\", "",
	"/", "",
	"*", "",
	"?", "",
	":", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName removes filesystem-unsafe characters from name. Spaces and
// other unicode characters are preserved; control characters are dropped and
// the result is NFC-normalized so visually identical titles map to the same
// bytes. Leading and trailing whitespace is trimmed.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(name)
	name = fileNameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}
