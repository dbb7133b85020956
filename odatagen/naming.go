package odatagen

import (
	"strings"
	"unicode"
)

// splitName splits a string on hyphens, underscores, and dots.
func splitName(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
}

// ToPascalCase transforms a name into PascalCase. Parts that already
// carry interior capitals, as most OData names do, are kept as-is apart
// from the leading letter.
func ToPascalCase(name string) string {
	parts := splitName(name)
	var b strings.Builder
	for _, part := range parts {
		runes := []rune(part)
		b.WriteRune(unicode.ToUpper(runes[0]))
		for _, r := range runes[1:] {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CommonAcronyms defines abbreviations that are fully uppercased when
// generating Go names.
var CommonAcronyms = map[string]string{
	"id":   "ID",
	"url":  "URL",
	"uuid": "UUID",
	"guid": "GUID",
	"api":  "API",
	"http": "HTTP",
}

// ToPascalCaseAcronyms transforms a name into PascalCase while applying
// the casing of common Go acronyms.
func ToPascalCaseAcronyms(name string) string {
	parts := splitName(name)
	var b strings.Builder
	for _, part := range parts {
		lower := strings.ToLower(part)
		if acronym, ok := CommonAcronyms[lower]; ok {
			b.WriteString(acronym)
			continue
		}
		runes := []rune(part)
		b.WriteRune(unicode.ToUpper(runes[0]))
		for _, r := range runes[1:] {
			b.WriteRune(r)
		}
	}
	return b.String()
}
