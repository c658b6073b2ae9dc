package footprint

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

var dashReplacer = strings.NewReplacer("–", "-", "—", "-")

var punctuationStripper = strings.NewReplacer(
	".", "", ",", "", ";", "", ":", "", "!", "", "?", "", "(", "", ")", "",
)

// NormalizeText canonicalizes a free-text answer so matching tolerates case,
// diacritics, dash style and whitespace. It never fails; empty input yields "".
func NormalizeText(raw string) string {
	if raw == "" {
		return ""
	}
	s, _, err := transform.String(stripMarks, raw)
	if err != nil {
		s = raw
	}
	s = dashReplacer.Replace(s)
	s = strings.ToLower(s)
	// ß has no decomposition; fold it so "Fuß" and "Fuss" meet.
	s = strings.ReplaceAll(s, "ß", "ss")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeEnum is NormalizeText plus removal of sentence punctuation.
// Hyphens survive so ranges like "10-20" stay intact.
func NormalizeEnum(raw string) string {
	return strings.TrimSpace(punctuationStripper.Replace(NormalizeText(raw)))
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
