package geoparse

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizeKey folds s into the form shared by every gazetteer index:
// lower case, diacritics removed, apostrophes dropped, any other
// punctuation turned into a single space.
//
//	normalizeKey("Québec")       == "quebec"
//	normalizeKey("U.S.A.")       == "u s a"
//	normalizeKey("Lee's Summit") == "lees summit"
//
// The transformer chain is built per call: transform.Transformer values
// carry state and must not be shared between goroutines.
func normalizeKey(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case r == '\'' || r == '’':
			// "Lee's" and "Lees" must share a key
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

// cleanCityName produces the display form of a city that was taken from the
// input rather than from the gazetteer. Whitespace is collapsed, edge
// punctuation trimmed, and text that was entirely upper or lower case is
// title-cased ("BULLHEAD CITY" -> "Bullhead City"). Mixed-case input is kept
// as typed.
func cleanCityName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, " .,;:_/|-#")
	if s == "" {
		return ""
	}
	if s == strings.ToUpper(s) || s == strings.ToLower(s) {
		return cases.Title(language.English).String(s)
	}
	return s
}

// hasLetter reports whether s contains at least one letter.
func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// hasDigit reports whether s contains at least one decimal digit.
func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isCodeToken reports whether s looks like a bare upper-case region or
// country code such as "ON", "WA" or "USA".
func isCodeToken(s string) bool {
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
