package form

import (
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// fields are the mapstructure names of the footprint inputs.
var fields = []string{
	"electricityMonthly",
	"petrolWeekly",
	"shortFlightDistance",
	"longFlightDistance",
}

var normalizedFields = func() []string {
	normalized := make([]string, len(fields))
	for i, field := range fields {
		normalized[i] = normalize(field)
	}
	return normalized
}()

// ResolveKey finds the input field a raw key refers to. Keys are matched
// without case or separators ("short_flight_distance", "ShortFlight") and
// fuzzily ("elec", "petrol_l_per_week"). A key matching several fields is
// ambiguous and resolves to nothing.
func ResolveKey(key string) (string, bool) {
	words := split(key)
	for n := len(words); n > 0; n-- {
		candidate := strings.Join(words[:n], "")

		for i, field := range normalizedFields {
			if candidate == field {
				return fields[i], true
			}
		}

		ranks := fuzzy.RankFindNormalizedFold(candidate, normalizedFields)
		if len(ranks) == 0 {
			continue
		}
		if len(ranks) > 1 {
			slog.Debug("ambiguous input key", "key", key, "candidate", candidate, "matches", len(ranks))
			return "", false
		}

		sort.Sort(ranks)
		slog.Debug("fuzzy found the closest input field", "key", key, "match", fields[ranks[0].OriginalIndex])
		return fields[ranks[0].OriginalIndex], true
	}

	return "", false
}

// split breaks a key into lowercase words on separators and camel case
// boundaries. For example "shortFlight_km" returns {"short", "flight", "km"}.
func split(key string) []string {
	words := make([]string, 0)
	current := new(strings.Builder)

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	var previous rune
	for _, r := range key {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(previous):
			flush()
			current.WriteRune(unicode.ToLower(r))
		default:
			current.WriteRune(unicode.ToLower(r))
		}
		previous = r
	}
	flush()

	return words
}

func normalize(key string) string {
	return strings.Join(split(key), "")
}
