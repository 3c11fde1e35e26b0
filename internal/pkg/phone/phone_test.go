package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"+15551234567":       "+15551234567",
		"15551234567":        "+15551234567",
		"+1 (555) 123-4567":  "+15551234567",
		"  +1 555 123 4567 ": "+15551234567",
		"8 (777) 123-45-67":  "+87771234567",
		"":                   "+",
	}
	for raw, want := range cases {
		assert.Equal(t, want, Normalize(raw), "raw=%q", raw)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, raw := range []string{"+1 (555) 123-4567", "15551234567", "", "+", "abc"} {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), "raw=%q", raw)
	}
}

func TestLastDigits(t *testing.T) {
	assert.Equal(t, "51234567", LastDigits("+15551234567", 8))
	assert.Equal(t, "1234", LastDigits("+1234", 8))
	assert.Equal(t, "", LastDigits("+", 8))
}
