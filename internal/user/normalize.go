package user

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold decomposes runes and drops everything outside ASCII, so
// "María" becomes "Maria" and "Łukasz" becomes "ukasz".
func asciiFold() transform.Transformer {
	return transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
}

// Normalize folds a free-text display name to ASCII, keeps only letters,
// digits, whitespace and hyphens, and collapses whitespace runs.
// It never fails; pathological input yields "".
func Normalize(name string) string {
	folded, _, err := transform.String(asciiFold(), strings.TrimSpace(name))
	if err != nil {
		// Malformed UTF-8.
		folded = strings.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return -1
			}
			return r
		}, name)
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// BaseUsername derives the collision-unaware username for a name:
// a single word is kept as is, several words give the first initial
// followed by the last word ("Jane Smith" -> "jsmith").
func BaseUsername(name string) string {
	parts := strings.Fields(strings.ToLower(Normalize(name)))

	var base string
	switch len(parts) {
	case 0:
		return FallbackUsername
	case 1:
		base = parts[0]
	default:
		base = parts[0][:1] + parts[len(parts)-1]
	}

	var cleaned strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			cleaned.WriteRune(r)
		}
	}
	if cleaned.Len() == 0 {
		return FallbackUsername
	}
	return cleaned.String()
}
