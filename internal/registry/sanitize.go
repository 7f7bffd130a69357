package registry

import (
	"regexp"
	"strings"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	emptySeparator = regexp.MustCompile(`,\s*,`)
	edgeSeparators = regexp.MustCompile(`^[,\s]+|[,\s]+$`)
)

// SanitizeQualifications turns the registry's HTML-formatted qualification
// list into a plain comma separated string.
func SanitizeQualifications(s string) string {
	s = tagPattern.ReplaceAllString(s, ", ")
	s = emptySeparator.ReplaceAllString(s, ",")
	return edgeSeparators.ReplaceAllString(s, "")
}

// FullName joins other names and last name, skipping empty parts.
func FullName(otherNames, lastName string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{otherNames, lastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func normalize(r record) Practitioner {
	return Practitioner{
		RegNo:          string(r.RegNo),
		RegDate:        r.RegDate,
		LastName:       r.LastName,
		OtherNames:     r.OtherNames,
		FullName:       FullName(r.OtherNames, r.LastName),
		Qualifications: SanitizeQualifications(r.Qualifications),
	}
}
