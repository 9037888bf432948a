package util

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtractToken(t *testing.T) {
	cases := map[string]string{
		"research bitcoin":               "bitcoin",
		"Analyze ETH":                    "ETH",
		"check  solana ":                 "solana",
		"what's happening with cardano?": "cardano",
		"BTC":                            "BTC",
		"":                               "",
		"tell me a story about markets":  "",
	}
	for in, want := range cases {
		if got := ExtractToken(in); got != want {
			t.Fatalf("ExtractToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"67250.5", "$67,250.5"},
		{"105", "$105"},
		{"1234567.891", "$1,234,567.89"},
		{"0.4137", "$0.41"},
		{"999.99", "$999.99"},
		{"-1500", "-$1,500"},
	}
	for _, c := range cases {
		if got := FormatUSD(decimal.RequireFromString(c.in)); got != c.want {
			t.Fatalf("FormatUSD(%s) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(decimal.RequireFromString("12.345")); got != "12.3%" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatSignedPercent(decimal.RequireFromString("4")); got != "+4.0%" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatSignedPercent(decimal.RequireFromString("-4.26")); got != "-4.3%" {
		t.Fatalf("unexpected %q", got)
	}
}
