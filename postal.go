package geoparse

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// postalPattern is the compiled postal code shape of one country.
type postalPattern struct {
	country string
	re      *regexp.Regexp
}

// PostalMatch is text that fits a country's postal code shape.
type PostalMatch struct {
	Country string `json:"country"`
	Value   string `json:"value"` // canonical rendering
}

// compilePostalPattern anchors expr so a pattern can only match a whole
// segment, never a number buried inside a street address.
func compilePostalPattern(country, expr string) (postalPattern, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return postalPattern{}, eris.Wrapf(ErrInvalidGazetteer, "postal pattern for %s: %v", country, err)
	}
	return postalPattern{country: country, re: re}, nil
}

// trimPostal strips the punctuation that commonly trails or leads a postal
// code in free text ("T8A 3H9." or "#20340").
func trimPostal(s string) string {
	return strings.ToUpper(strings.Trim(s, " \t.,;:#()[]"))
}

// matchPostal returns every country whose postal shape fits s.
func matchPostal(patterns []postalPattern, s string) []PostalMatch {
	text := trimPostal(s)
	if text == "" || !hasDigit(text) {
		return nil
	}
	var out []PostalMatch
	for _, p := range patterns {
		if p.re.MatchString(text) {
			out = append(out, PostalMatch{Country: p.country, Value: canonicalPostal(p.country, text)})
		}
	}
	return out
}

// canonicalPostal renders a matched postal code in its country's usual form:
// US codes as 12345 or 12345-6789, Canadian codes as A1A 1A1. Codes of other
// countries are returned with inner whitespace collapsed.
func canonicalPostal(country, s string) string {
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, strings.ToUpper(s))

	switch country {
	case "US":
		if len(compact) == 9 {
			return compact[:5] + "-" + compact[5:]
		}
		return compact
	case "CA":
		if len(compact) == 6 {
			return compact[:3] + " " + compact[3:]
		}
		return compact
	default:
		return strings.Join(strings.Fields(s), " ")
	}
}
