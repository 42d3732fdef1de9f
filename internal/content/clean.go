package content

import (
	"strings"
	"unicode/utf8"
)

var charReplacementMap = map[string]string{
	"‘": "'", "’": "'", "“": "\"",
	"”": "\"", "–": "-", "—": "--", "…": "...",
	" ": " ", "": "-", "": "--", "": "'",
	"": "'", "": "\"", "": "\"", "•": "-",
}

const utf8BOM = "\uFEFF"

// CleanText normalizes extracted page text: strips the BOM, replaces
// typographic punctuation variants and repairs invalid UTF-8 so the text
// embeds safely into a prompt.
func CleanText(s string) string {
	s = strings.TrimPrefix(s, utf8BOM)

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}

	for bad, good := range charReplacementMap {
		s = strings.ReplaceAll(s, bad, good)
	}
	return s
}
