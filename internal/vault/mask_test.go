package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskIdentifier(t *testing.T) {
	cases := map[string]string{
		"":                      "",
		"ab":                    "***",
		"abcd":                  "***",
		"alice":                 "al***e",
		"alice@example.com":     "al***e@example.com",
		"bob@example.com":       "***@example.com",
		"ABCD-EFGH-1234":        "AB***4",
		"  alice@example.com  ": "al***e@example.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskIdentifier(in), "input %q", in)
	}
}

func TestMaskIdentifierNeverEchoesMiddle(t *testing.T) {
	id := "supersecretaccountname@provider.tv"
	masked := MaskIdentifier(id)
	assert.NotContains(t, masked, "persecretaccountnam")
}
