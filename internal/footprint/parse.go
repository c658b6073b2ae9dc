package footprint

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var firstInteger = regexp.MustCompile(`\d+`)

// ParseOfficeDays extracts the first integer from the answer and accepts it
// when it is a plausible number of days per week (0-7). Anything else is 0.
func ParseOfficeDays(text string) int {
	m := firstInteger.FindString(NormalizeEnum(text))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 0 || n > 7 {
		return 0
	}
	return n
}

// ParseDistanceKm maps a distance bucket to its representative km value,
// 0 when no bucket matches.
func ParseDistanceKm(text string) float64 {
	v, ok := DistanceBuckets.MatchNormalized(stripSpaces(NormalizeEnum(text)))
	if !ok {
		return 0
	}
	return v
}

// ParseAltFrequency returns the share of commute days covered by an
// alternative mode, or nil when the answer is absent or unrecognised.
func ParseAltFrequency(text string) *float64 {
	v, ok := AltFrequencies.Match(text)
	if !ok {
		return nil
	}
	return &v
}

// flightToken finds the first count or range in a flight answer once spaces
// are gone, e.g. "ca.10", "1-2mal", "3,6".
var flightToken = regexp.MustCompile(`-?\d+(?:[.,]\d+)?(?:-\d+(?:[.,]\d+)?)?`)

// ParseFlightsPerYear resolves the expected number of flights per year,
// rounded half away from zero. Plain numbers are taken as-is. Otherwise the
// first count or range in the answer decides: known ranges use the bucket
// table, other ranges their midpoint. Negative counts and answers without a
// figure give nil.
func ParseFlightsPerYear(text string) *int {
	if n := ParseNumber(text); n != nil {
		return countOf(*n)
	}
	tok := flightToken.FindString(stripSpaces(NormalizeText(text)))
	if tok == "" || strings.HasPrefix(tok, "-") {
		return nil
	}
	if v, ok := FlightCounts.Lookup(tok); ok {
		return countOf(v)
	}
	lo, hi, isRange := strings.Cut(tok, "-")
	if !isRange {
		if n := ParseNumber(tok); n != nil {
			return countOf(*n)
		}
		return nil
	}
	a, b := ParseNumber(lo), ParseNumber(hi)
	if a == nil || b == nil {
		return nil
	}
	return countOf((*a + *b) / 2)
}

func countOf(v float64) *int {
	if v < 0 {
		return nil
	}
	n := int(math.Round(v))
	return &n
}

// ParseNumber reads a number from free text, accepting a decimal comma.
// Garbage, empty input and non-finite values yield nil.
func ParseNumber(text string) *float64 {
	s := strings.TrimSpace(strings.Replace(text, ",", ".", 1))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseText trims the answer and returns nil when nothing is left.
func ParseText(text string) *string {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	return &s
}

// FlightDistanceKm returns the display-only one-way km proxy for a flight
// label. It does not feed into the emission sum.
func FlightDistanceKm(label string) *int {
	km, ok := flightKm[label]
	if !ok {
		return nil
	}
	return &km
}

// MapTransport resolves the main commute mode, falling back to the car type
// answer only when the transport answer matches nothing.
func MapTransport(transportText, carTypeText string) string {
	if label, ok := Transports.Match(transportText); ok {
		return label
	}
	if label, ok := CarTypes.Match(carTypeText); ok {
		return label
	}
	return Unknown
}

// MapAltTransport resolves the alternative mode; "" when there is none.
func MapAltTransport(text string) string {
	label, _ := Transports.Match(text)
	return label
}

// MapCarType resolves the car drive type; "" when unrecognised.
func MapCarType(text string) string {
	label, _ := CarTypes.Match(text)
	return label
}

// MapFlightDistance resolves the typical flight range; "" when unrecognised.
func MapFlightDistance(text string) string {
	label, _ := FlightDistances.Match(text)
	return label
}

// MapHeatSource resolves heating or warm-water answers to an energy source
// label, Unknown when unrecognised.
func MapHeatSource(text string) string {
	if label, ok := HeatSources.Match(text); ok {
		return label
	}
	return Unknown
}
