package claimextract

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase passthrough", "dr smith", "dr smith"},
		{"uppercase", "DR SMITH", "dr smith"},
		{"whitespace runs", "a  b\t\tc\n\nd", "a b c d"},
		{"punctuation to separator", "Dr. Smith", "dr smith"},
		{"decimal split", "$100.00", "100 00"},
		{"leading and trailing", "  hello  ", "hello"},
		{"mixed", "Final Diagnosis: Flu!", "final diagnosis flu"},
		{"only punctuation", "...$$$!!!", ""},
		{"claim fixture", "Dr. Smith Diagnosis: Flu Cost: $100.00", "dr smith diagnosis flu cost 100 00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

// Normalized output never contains uppercase letters, consecutive whitespace,
// or anything outside lowercase alphanumerics and single spaces.
func TestNormalizeInvariants(t *testing.T) {
	inputs := []string{
		"",
		"Dr. Smith Diagnosis: Flu Cost: $100.00",
		"TO BE FILLED BY DOCTOR\nFinal Diagnosis of condition treated: Z00.0\nName of Doctor : Dr. Omany",
		"weird spacing\twith\r\nline breaks",
		"ALL CAPS WITH $YMBOL$ AND 123 NUMBERS!!!",
	}
	for _, in := range inputs {
		out := Normalize(in)
		assert.NotContains(t, out, "  ", "input %q", in)
		assert.Equal(t, strings.TrimSpace(out), out, "input %q", in)
		for _, r := range out {
			ok := unicode.IsLower(r) || unicode.IsDigit(r) || r == ' '
			assert.True(t, ok, "unexpected rune %q in output of %q", r, in)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := "Dr. Smith Diagnosis: Flu Cost: $100.00"
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once))
}
