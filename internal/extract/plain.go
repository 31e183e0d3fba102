package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// sectionMarker matches whole-line annotations such as "[Chorus]" or "[Verse 2: Artist]".
var sectionMarker = regexp.MustCompile(`^\[[^\]]*\]$`)

// extractPlain returns content as string, validating it is valid UTF-8.
// Invalid UTF-8 sequences are replaced with the replacement character.
func extractPlain(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "\ufffd")
	}
	return string(content)
}

// splitLines returns the non-empty, non-annotation lines of text.
func splitLines(text string) []Line {
	var out []Line
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		s := strings.TrimSpace(raw)
		if s == "" || sectionMarker.MatchString(s) {
			continue
		}
		out = append(out, Line{Text: s})
	}
	return out
}
