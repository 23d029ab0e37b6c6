package utils

import "strings"

// Token counts are estimated at roughly four characters per token, which is
// close enough for budgeting prompts built from profile summaries.
const charsPerToken = 4

// EstimateTokens approximates the token count of text. Any non-empty text
// counts as at least one token.
func EstimateTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	if n < charsPerToken {
		return 1
	}
	return n / charsPerToken
}

// TruncateToTokenLimit cuts text to fit within limit tokens. When the cut
// falls inside a line, the partial line is dropped so prompts keep whole
// column descriptions; a single oversized line is cut mid-line.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	max := limit * charsPerToken
	if max >= len(runes) {
		return text
	}
	cut := string(runes[:max])
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		return cut[:i]
	}
	return cut
}
