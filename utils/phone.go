package utils

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

// NormalizePhone strips the separators people type into phone fields.
func NormalizePhone(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	return r.Replace(strings.TrimSpace(s))
}

func ValidPhone(s string) bool {
	return phonePattern.MatchString(NormalizePhone(s))
}
