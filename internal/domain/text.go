package domain

import (
	"regexp"
	"strings"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// CleanText strips HTML tags and collapses whitespace runs to single spaces.
func CleanText(text string) string {
	withoutHTML := htmlTagPattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(withoutHTML, " "))
}
