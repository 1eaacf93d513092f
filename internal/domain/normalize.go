package domain

import "strings"

// Normalize turns raw submitted text into countable tokens.
//
// The text is lowercased, every rune outside a-z, 0-9 and whitespace becomes
// a separator, and the remaining fields are kept only when they are purely
// alphabetic, longer than one character and not stop words. Order and
// duplicates are preserved. Normalize never fails; junk input yields an empty
// slice.
func Normalize(raw string) []string {
	tokens := make([]string, 0)
	if raw == "" {
		return tokens
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\v', r == '\f':
			return r
		default:
			return ' '
		}
	}, strings.ToLower(raw))

	for _, field := range strings.Fields(cleaned) {
		if len(field) < 2 || !isAlpha(field) || IsStopWord(field) {
			continue
		}
		tokens = append(tokens, field)
	}

	return tokens
}

// isAlpha reports whether s consists only of a-z
func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
