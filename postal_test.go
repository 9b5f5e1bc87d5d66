package geoparse

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPostal(t *testing.T) {
	tests := []struct {
		country, in, want string
	}{
		{"US", "20340", "20340"},
		{"US", "980401234", "98040-1234"},
		{"US", "98040 1234", "98040-1234"},
		{"US", "98040-1234", "98040-1234"},
		{"CA", "m4e3j1", "M4E 3J1"},
		{"CA", "M4E 3J1", "M4E 3J1"},
		{"MX", " 44100  A ", "44100 A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canonicalPostal(tt.country, tt.in), "%s %q", tt.country, tt.in)
	}
}

func TestMatchPostal(t *testing.T) {
	us, err := compilePostalPattern("US", `\d{5}(?:[- ]?\d{4})?`)
	require.NoError(t, err)
	ca, err := compilePostalPattern("CA", `[ABCEGHJKLMNPRSTVXY]\d[ABCEGHJKLMNPRSTVWXYZ] ?\d[ABCEGHJKLMNPRSTVWXYZ]\d`)
	require.NoError(t, err)
	patterns := []postalPattern{ca, us}

	assert.Equal(t, []PostalMatch{{Country: "US", Value: "20340"}}, matchPostal(patterns, "#20340"))
	assert.Equal(t, []PostalMatch{{Country: "CA", Value: "T8A 3H9"}}, matchPostal(patterns, "(t8a 3h9)"))

	// Anchored: a number inside an address is not a postal code.
	assert.Empty(t, matchPostal(patterns, "9985 PRITCHARD RD"))
	assert.Empty(t, matchPostal(patterns, "123456"))
	assert.Empty(t, matchPostal(patterns, "ABCDE"))
	assert.Empty(t, matchPostal(patterns, ""))
}

func TestCompilePostalPatternError(t *testing.T) {
	_, err := compilePostalPattern("US", `(\d{5}`)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidGazetteer))
}
