package catalog

import (
	"strings"
	"unicode"
)

// Slugify lower-cases name and joins its alphanumeric runs with dashes,
// so "Teak Wood – 12mm (Matte)" becomes "teak-wood-12mm-matte".
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
