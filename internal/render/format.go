package render

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups thousands the english way, whatever the host locale.
var printer = message.NewPrinter(language.English)

const maxGroupedDigits = 18

// FormatNumber formats v with the given number of decimals and thousand
// separators. For example FormatNumber(3001.2, 0) returns "3,001".
func FormatNumber(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}

	formatted := fmt.Sprintf("%.*f", digits, v)

	negative := strings.HasPrefix(formatted, "-")
	formatted = strings.TrimPrefix(formatted, "-")

	intPart, decimals, hasDecimals := strings.Cut(formatted, ".")

	// past int64 range, digits are printed without grouping
	if len(intPart) > maxGroupedDigits {
		if negative {
			return "-" + formatted
		}
		return formatted
	}

	var n int64
	for _, c := range intPart {
		n = n*10 + int64(c-'0')
	}

	grouped := printer.Sprintf("%d", n)
	if negative && strings.Trim(formatted, "0.") != "" {
		grouped = "-" + grouped
	}
	if hasDecimals {
		return grouped + "." + decimals
	}
	return grouped
}
