package phone

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a raw phone number string so that every store
// lookup and persistence operation is keyed consistently regardless of how
// the caller formatted the number. Whitespace, hyphens and parentheses are
// stripped and a leading "+" is added when absent.
//
// The function is pure and total: an empty input normalizes to "+".
func Normalize(raw string) string {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, raw)
	if !strings.HasPrefix(normalized, "+") {
		normalized = "+" + normalized
	}
	return normalized
}

// LastDigits returns up to n trailing digits of the number, used to derive
// fallback usernames.
func LastDigits(raw string, n int) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > n {
		return digits[len(digits)-n:]
	}
	return digits
}
