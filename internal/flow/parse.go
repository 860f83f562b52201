package flow

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.BrazilianPortuguese)

// normalize lowercases and trims an inbound message for token matching.
func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// containsAny reports whether msg contains any of the given tokens.
func containsAny(msg string, tokens ...string) bool {
	for _, t := range tokens {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}

// titleCaseName normalizes a free-text display name to title case.
func titleCaseName(name string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(name)))
}

// firstName returns the first whitespace-separated token of a display name.
func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[0]
}

// capitalize uppercases the first rune of a phrase ("céu limpo" -> "Céu limpo").
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// parseCityFromInput extracts a city name from free text: everything after
// the first '-' or '/' is discarded, and a trailing federative-unit
// abbreviation ("Recife PE") is dropped from the city name.
func parseCityFromInput(text string, abbreviations map[string]bool) string {
	cut := text
	if i := strings.IndexAny(text, "-/"); i >= 0 {
		cut = text[:i]
	}
	fields := strings.Fields(strings.TrimSpace(cut))
	if len(fields) > 1 && abbreviations[strings.ToUpper(fields[len(fields)-1])] {
		fields = fields[:len(fields)-1]
	}
	return strings.TrimSpace(strings.Join(fields, " "))
}
