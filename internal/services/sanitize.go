package services

import (
	"regexp"
	"strings"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	bracketPattern = regexp.MustCompile(`[<>]`)
)

// sanitizeText strips tag-like substrings and stray angle brackets.
func sanitizeText(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = bracketPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
