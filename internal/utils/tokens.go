package utils

import (
	"strings"
	"unicode/utf8"
)

// charsPerToken is the rough runes-per-token ratio behind every estimate here.
// It only has to keep prompts inside a model's context window.
const charsPerToken = 4

// CountTokens estimates the tokens in text. Non-empty text is at least one token.
func CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return max(n/charsPerToken, 1)
}

// TruncateToTokenLimit cuts text to about limit tokens. When a line break
// falls in the second half of the kept text the cut moves back to it, so a
// prompt does not end on a partial JSON line.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	keep := limit * charsPerToken
	if keep >= len(runes) {
		return text
	}
	cut := string(runes[:keep])
	if i := strings.LastIndexByte(cut, '\n'); i >= len(cut)/2 {
		cut = cut[:i]
	}
	return cut
}
