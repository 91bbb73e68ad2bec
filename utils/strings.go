package utils

import (
	"strings"
	"unicode"
)

const maxSlugLen = 80

// UniqueStrings removes duplicate and blank values from a slice while
// preserving order. Comparison is case-insensitive.
func UniqueStrings(slice []string) []string {
	keys := make(map[string]bool)
	list := []string{}
	for _, entry := range slice {
		trimmed := strings.TrimSpace(entry)
		key := strings.ToLower(trimmed)
		if key == "" {
			continue
		}
		if _, seen := keys[key]; !seen {
			keys[key] = true
			list = append(list, trimmed)
		}
	}
	return list
}

// Slugify converts a title into a URL-safe slug: lowercase, letters and
// digits separated by single hyphens, at most maxSlugLen runes.
func Slugify(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))

	var b strings.Builder
	lastHyphen := true
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if runes := []rune(slug); len(runes) > maxSlugLen {
		slug = strings.Trim(string(runes[:maxSlugLen]), "-")
	}
	return slug
}

// EscapeLike escapes LIKE metacharacters so user input matches literally
// inside a pattern.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// TruncateWords shortens s to at most limit runes, preferring a word boundary
// and appending an ellipsis when truncation happened.
func TruncateWords(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	cut := string(runes[:limit])
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > limit/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n.,;:") + "…"
}
