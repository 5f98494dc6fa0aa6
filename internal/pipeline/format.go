package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCompact renders a count for KPI display: one decimal place with a
// B/M/K suffix from 1e9/1e6/1e3 upward, a thousands-grouped integer below
// that, and "N/A" for NaN (missing) values.
//
//	FormatCompact(999)       == "999"
//	FormatCompact(1500)      == "1.5K"
//	FormatCompact(2_300_000) == "2.3M"
func FormatCompact(n float64) string {
	if math.IsNaN(n) {
		return "N/A"
	}
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.1fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.1fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.1fK", n/1e3)
	}
	return groupThousands(math.Round(n))
}

// groupThousands formats v as an integer with comma separators.
func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
