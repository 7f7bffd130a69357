// Package email derives display values from admin email addresses.
package email

import (
	"strings"
	"unicode"
)

// FallbackName is used when the local part has nothing usable.
const FallbackName = "Admin"

// DisplayName turns the local part of addr into a title-cased name:
// "nimal.silva+ops@aumedix.com" becomes "Nimal Silva Ops". Purely numeric
// segments are dropped.
func DisplayName(addr string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(addr), "@")

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.IndexFunc(p, unicode.IsLetter) < 0 {
			continue
		}
		words = append(words, capitalize(strings.ToLower(p)))
	}
	if len(words) == 0 {
		return FallbackName
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
