package telegram

import (
	"strings"
	"unicode"
)

// Лимиты Bot API в символах.
const (
	MessageLimit = 4096
	CaptionLimit = 1024
)

// SplitMessage делит текст на части, каждая из которых помещается в одно сообщение.
func SplitMessage(text string) []string {
	return SplitText(text, MessageLimit)
}

// SplitText делит текст на части не длиннее limit символов.
// Разрез ищется сначала на переводе строки, затем на пробеле, и только потом по лимиту.
func SplitText(text string, limit int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	runes := []rune(trimmed)
	if limit <= 0 || len(runes) <= limit {
		return []string{trimmed}
	}

	var parts []string
	for start := 0; start < len(runes); {
		end := start + limit
		if end >= len(runes) {
			parts = appendChunk(parts, runes[start:])
			break
		}
		split := lastBreak(runes, start, end)
		parts = appendChunk(parts, runes[start:split])
		start = split
		for start < len(runes) && unicode.IsSpace(runes[start]) {
			start++
		}
	}
	return parts
}

func lastBreak(runes []rune, start, end int) int {
	for _, sep := range []rune{'\n', ' '} {
		for i := end; i > start; i-- {
			if runes[i-1] == sep {
				return i
			}
		}
	}
	return end
}

func appendChunk(parts []string, chunk []rune) []string {
	if s := strings.TrimSpace(string(chunk)); s != "" {
		return append(parts, s)
	}
	return parts
}
