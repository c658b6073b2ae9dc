package utils

import (
	"strings"

	"golang.org/x/text/language"
)

// Locales served by the HTML partials and messages.
var SupportedLocales = []string{"de", "en"}

const DefaultLocale = "de"

// DetermineLocale resolves a locale from an explicit query param, then the
// Accept-Language header, then def. Only base languages are returned, so
// "en-US" resolves to "en".
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	sup := map[string]struct{}{}
	for _, s := range supported {
		sup[strings.ToLower(s)] = struct{}{}
	}
	pick := func(tag language.Tag) (string, bool) {
		base, _ := tag.Base()
		l := strings.ToLower(base.String())
		_, ok := sup[l]
		return l, ok
	}

	if queryLang != "" {
		if tag, err := language.Parse(queryLang); err == nil {
			if v, ok := pick(tag); ok {
				return v
			}
		}
	}

	// tags come back sorted by q, highest first
	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err == nil {
		for _, tag := range tags {
			if v, ok := pick(tag); ok {
				return v
			}
		}
	}

	if _, ok := sup[strings.ToLower(def)]; ok {
		return strings.ToLower(def)
	}
	if len(supported) > 0 {
		return strings.ToLower(supported[0])
	}
	return DefaultLocale
}
