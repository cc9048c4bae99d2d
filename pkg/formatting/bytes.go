// Package formatting converts byte sizes between counts and human-readable
// strings such as "5MB", used for storage quotas and status reporting.
package formatting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Units are base-1024. The IEC spellings ("KiB", "MiB") parse to the same
// multipliers.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes converts a byte count to a human-readable string. Negative
// precision values are clamped to zero.
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}
	precision = max(precision, 0)

	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		precision = 0
	}
	return sign + strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses a byte size such as "50MB", "1.5 KiB", or "1024". A bare
// number is bytes. Unit matching is case-insensitive.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}
	if number == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number %q: %w", number, err)
	}

	exp, err := unitExponent(unit)
	if err != nil {
		return 0, err
	}

	total := value * math.Pow(1024, float64(exp))
	if total >= math.MaxInt64 {
		return 0, fmt.Errorf("byte size overflows: %q", s)
	}
	return int64(total), nil
}

func unitExponent(unit string) (int, error) {
	if unit == "" {
		return 0, nil
	}
	u := strings.ToUpper(unit)
	if len(u) == 3 && u[1] == 'I' {
		u = u[:1] + u[2:]
	}
	for i, name := range units {
		if u == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown byte size unit: %q", unit)
}
