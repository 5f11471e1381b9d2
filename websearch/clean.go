package websearch

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reSpaces   = regexp.MustCompile(`[ \t]+`)
	reNewlines = regexp.MustCompile(`\n{2,}`)
)

var noisePatterns = []string{
	"Cookie", "Privacy Policy", "Advertisement", "Subscribe", "Sign up", "All rights reserved",
}

// Clean normalizes whitespace, strips control characters and drops lines of
// common page boilerplate from a snippet.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	b := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	lines := strings.Split(b, "\n")
	out := lines[:0]
	for _, l := range lines {
		if isNoise(l) {
			continue
		}
		out = append(out, l)
	}
	b = strings.Join(out, "\n")
	b = reSpaces.ReplaceAllString(b, " ")
	b = reNewlines.ReplaceAllString(b, "\n")
	return strings.TrimSpace(strings.ReplaceAll(b, "\n", " "))
}

func isNoise(line string) bool {
	for _, p := range noisePatterns {
		if strings.Contains(line, p) {
			return true
		}
	}
	return false
}
