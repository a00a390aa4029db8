// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatSales formats a sales figure with thousands separators and no decimals.
// e.g., 1234567.4 -> "1,234,567"
func FormatSales(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return FormatNumber(int64(math.Round(v)))
}

// FormatCompact formats a value with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M"
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDelta formats the change from previous to current with sign and
// relative change, e.g. "+1,200 (+4.8%)".
func FormatDelta(current, previous float64) string {
	delta := current - previous
	sign := "+"
	if delta < 0 {
		sign = "-"
	}
	out := sign + FormatSales(math.Abs(delta))
	if previous != 0 {
		out += fmt.Sprintf(" (%+.1f%%)", delta/math.Abs(previous)*100)
	}
	return out
}

// FormatMonth renders a month as "Jan 2024".
func FormatMonth(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2006")
}

// FormatRange renders an inclusive month range.
func FormatRange(from, to time.Time) string {
	if from.Equal(to) {
		return FormatMonth(from)
	}
	return FormatMonth(from) + " - " + FormatMonth(to)
}

// FormatOptional formats a possibly absent value, "-" when nil.
func FormatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return FormatSales(*v)
}

// Direction returns +1, -1 or 0 as current is above, below or equal to previous.
func Direction(current, previous float64) int {
	switch {
	case current > previous:
		return 1
	case current < previous:
		return -1
	default:
		return 0
	}
}

// TrendArrow returns an arrow for a -1/0/+1 direction.
func TrendArrow(dir int) string {
	switch {
	case dir > 0:
		return "▲"
	case dir < 0:
		return "▼"
	default:
		return "·"
	}
}
