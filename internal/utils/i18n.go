package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Minimal server-side i18n for the HTML partials and htmx auth messages.

var translations = map[string]map[string]string{
	"de": {
		"health.ok":           "ok",
		"summary.count":       "Einträge gesamt",
		"summary.avg":         "Ø CO2 (kg)",
		"summary.latest":      "Letzter Eintrag",
		"summary.mine":        "Meine Einträge",
		"summary.myavg":       "Mein Ø CO2 (kg)",
		"table.empty":         "Keine Daten",
		"table.error":         "Fehler beim Laden",
		"auth.login_ok":       "Login erfolgreich (%s).",
		"auth.register_ok":    "Registrierung erfolgreich (%s).",
		"auth.missing":        "Email und Passwort sind erforderlich.",
		"auth.login_failed":   "Login fehlgeschlagen.",
		"auth.register_taken": "Email bereits registriert.",
		"auth.register_fail":  "Registrierung fehlgeschlagen.",
	},
	"en": {
		"health.ok":           "ok",
		"summary.count":       "Total entries",
		"summary.avg":         "Avg CO2 (kg)",
		"summary.latest":      "Latest entry",
		"summary.mine":        "My entries",
		"summary.myavg":       "My avg CO2 (kg)",
		"table.empty":         "No data",
		"table.error":         "Failed to load",
		"auth.login_ok":       "Login successful (%s).",
		"auth.register_ok":    "Registration successful (%s).",
		"auth.missing":        "Email and password are required.",
		"auth.login_failed":   "Login failed.",
		"auth.register_taken": "Email already registered.",
		"auth.register_fail":  "Registration failed.",
	},
}

// T returns the translated string for key in locale; falls back to German.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations[DefaultLocale][key]; ok {
		return v
	}
	return key
}

// Printer formats numbers with the locale's separators ("1.234,56" in de).
func Printer(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.German
	}
	return message.NewPrinter(tag)
}
