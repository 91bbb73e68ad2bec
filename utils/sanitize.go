package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = bluemonday.UGCPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks while keeping the safe
// user-generated subset (links, formatting, code blocks).
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// StripHTML removes all markup and decodes entities, returning plain text.
func StripHTML(input string) string {
	return strings.TrimSpace(html.UnescapeString(stripper.Sanitize(input)))
}
