package controller

import (
	"regexp"
	"strings"
)

var keywordSeparator = regexp.MustCompile(`[;,]`)

// ParseKeywords splits on ';' or ',', trims, lower-cases and drops empties.
func ParseKeywords(text string) []string {
	if text == "" {
		return []string{}
	}
	keywords := []string{}
	for _, k := range keywordSeparator.Split(text, -1) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}
