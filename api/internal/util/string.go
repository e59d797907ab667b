package util

import (
	"strings"
	"unicode/utf8"
)

// StripCodeFences снимает ```json ... ``` (или просто ```) по краям ответа модели.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 7 && strings.EqualFold(s[:7], "```json") {
		s = s[7:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractBraceBlock возвращает подстроку от первой '{' до последней '}' (жадно).
func ExtractBraceBlock(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// Truncate обрезает строку до n байт, не разрывая руну.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
