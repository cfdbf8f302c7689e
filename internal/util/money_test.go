package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		nil_ bool
	}{
		{in: "$50,000", want: 50000},
		{in: "10.000", want: 10000},
		{in: "10,5", want: 10.5},
		{in: "25000", want: 25000},
		{in: " $ 1,234.56 ", want: 1234.56},
		{in: "waive", nil_: true},
		{in: "", nil_: true},
	}

	for _, c := range cases {
		got := ParseAmount(c.in)
		if c.nil_ {
			require.Nil(t, got, "ParseAmount(%q)", c.in)
			continue
		}
		require.NotNil(t, got, "ParseAmount(%q)", c.in)
		require.Equal(t, c.want, *got, "ParseAmount(%q)", c.in)
	}
}

func TestNormalizeNumericToken(t *testing.T) {
	cases := map[string]string{
		"10.000":   "10000",
		"10,000":   "10000",
		"10,5":     "10.5",
		"1,234.56": "1234.56",
		"42":       "42",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeNumericToken(in), "NormalizeNumericToken(%q)", in)
	}
}
