package pipeline

import (
	"math"
	"testing"
)

func TestFormatCompact(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{999.4, "999"},
		{1000, "1.0K"},
		{1500, "1.5K"},
		{2_300_000, "2.3M"},
		{1_000_000, "1.0M"},
		{1_000_000_000, "1.0B"},
		{54_250_000_000, "54.2B"},
		{-5000, "-5,000"},
	}
	for _, c := range cases {
		if got := FormatCompact(c.in); got != c.want {
			t.Errorf("FormatCompact(%v): got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatCompact_NaN(t *testing.T) {
	if got := FormatCompact(math.NaN()); got != "N/A" {
		t.Errorf("FormatCompact(NaN): got %q, want N/A", got)
	}
}
