package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// containerExts lists trailing container-format suffixes removed before key
// derivation. Comparison is case-insensitive.
var containerExts = map[string]struct{}{
	".mp4":  {},
	".m4v":  {},
	".mkv":  {},
	".avi":  {},
	".mov":  {},
	".wmv":  {},
	".flv":  {},
	".webm": {},
	".mpg":  {},
	".mpeg": {},
	".ts":   {},
}

var foldCaser = cases.Fold()

// CanonicalKey converts a filename or history title to its canonical
// comparison key. The function is total: any input, including the empty
// string, yields a key (possibly empty).
//
// Steps, in order: strip one known container extension, strip one trailing
// dash-digit index suffix (e.g. "-01"), drop every rune that is not a letter
// or digit, case-fold the remainder.
func CanonicalKey(text string) string {
	text = stripContainerExt(text)
	text = stripIndexSuffix(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return foldCaser.String(b.String())
}

// stripContainerExt removes a trailing container extension when present.
// Unknown extensions are kept: "archive.tar" keeps its suffix.
func stripContainerExt(text string) string {
	dot := strings.LastIndexByte(text, '.')
	if dot <= 0 {
		return text
	}
	if _, ok := containerExts[strings.ToLower(text[dot:])]; ok {
		return text[:dot]
	}
	return text
}

// stripIndexSuffix removes at most one trailing "-<digits>" multi-part
// marker. Only the end of the string is considered.
func stripIndexSuffix(text string) string {
	i := len(text)
	for i > 0 && text[i-1] >= '0' && text[i-1] <= '9' {
		i--
	}
	if i == len(text) || i == 0 {
		return text
	}
	if text[i-1] != '-' {
		return text
	}
	return text[:i-1]
}
