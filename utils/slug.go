package utils

import (
	"regexp"
	"strings"
)

var (
	// nonSlugChars matches anything that is not a letter, digit, space, underscore or hyphen.
	nonSlugChars    = regexp.MustCompile(`[^\p{L}\p{N}\s_-]`)
	whitespaceRun   = regexp.MustCompile(`[\s_]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify creates a URL-friendly slug from the given title.
// Example: "Hello, World! 2026" → "hello-world-2026". Letters outside ASCII
// are kept so that non-Latin titles still produce a usable slug.
func Slugify(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonSlugChars.ReplaceAllString(result, "")
	result = whitespaceRun.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if r := []rune(result); len(r) > 200 {
		result = strings.TrimRight(string(r[:200]), "-")
	}
	return result
}
