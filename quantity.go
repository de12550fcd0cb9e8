package carbonfootprint

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Sanitize maps any value that cannot be a consumed quantity (NaN, infinities,
// negatives) to zero. Negative zero reads as zero as well.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}

// ParseQuantity reads the leading decimal literal of s and returns it when it
// is a finite non-negative number. Trailing characters are ignored, so "12kWh"
// reads as 12. Anything else reads as 0.
func ParseQuantity(s string) float64 {
	literal := numericPrefix(strings.TrimLeftFunc(s, unicode.IsSpace))
	if literal == "" {
		return 0
	}

	v, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return 0
	}

	return Sanitize(v)
}

// numericPrefix returns the longest prefix of s matching
// [+-]? (digits [. digits?] | . digits) ([eE] [+-]? digits)?
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	intDigits := countDigits(s[i:])
	i += intDigits

	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		fracDigits = countDigits(s[i+1:])
		if intDigits > 0 || fracDigits > 0 {
			i += 1 + fracDigits
		}
	}

	if intDigits == 0 && fracDigits == 0 {
		return ""
	}

	// exponent is only consumed when complete
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if expDigits := countDigits(s[j:]); expDigits > 0 {
			i = j + expDigits
		}
	}

	return s[:i]
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
