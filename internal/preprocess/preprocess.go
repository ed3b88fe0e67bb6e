// Package preprocess normalizes clinical note text before embedding and
// bounds the context handed to the generation model.
package preprocess

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// TruncationMarker is appended whenever TruncateContext shortens a context.
const TruncationMarker = "... (truncated)"

// CleanText collapses every whitespace run (newlines and tabs included) to a
// single space and trims the ends. Clinical note exports are full of layout
// whitespace that hurts embedding quality.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// TruncateContext bounds context to maxChars characters, appending
// TruncationMarker when it cuts. maxChars <= 0 disables truncation.
// The budget is in characters, a crude stand-in for the generation model's
// token budget; the limit is configuration, not a constant.
func TruncateContext(context string, maxChars int) string {
	if maxChars <= 0 {
		return context
	}
	runes := []rune(context)
	if len(runes) <= maxChars {
		return context
	}
	return string(runes[:maxChars]) + TruncationMarker
}
