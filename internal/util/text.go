package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeKey folds a column header or attribute name for lookups.
func NormalizeKey(input string) string {
	s := norm.NFC.String(input)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeToken folds a raw type token for table lookups.
func NormalizeToken(input string) string {
	s := norm.NFC.String(input)
	return strings.ToUpper(strings.TrimSpace(s))
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// ParseFlag reports whether a cell or attribute marks a writable parameter.
func ParseFlag(input string) bool {
	switch NormalizeKey(input) {
	case "1", "1.0", "true", "yes", "y", "x", "+", "rw", "w", "да", "д":
		return true
	}
	return false
}

func Unquote(input string) string {
	s := strings.TrimSpace(input)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func FloatPtr(v float64) *float64 {
	return &v
}
