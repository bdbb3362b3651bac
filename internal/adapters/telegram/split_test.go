package telegram

import (
	"strings"
	"testing"
)

func TestSplitMessagePrefersNewline(t *testing.T) {
	text := strings.Repeat("а", 3000) + "\n\n" + strings.Repeat("б", 2000) + "\n" + strings.Repeat("в", 500)

	parts := SplitMessage(text)
	if len(parts) != 2 {
		t.Fatalf("ожидали 2 части, получили %d", len(parts))
	}
	for i, part := range parts {
		if n := len([]rune(part)); n > MessageLimit {
			t.Fatalf("часть %d длиннее лимита: %d", i, n)
		}
	}
	if parts[0] != strings.Repeat("а", 3000) {
		t.Fatalf("первая часть должна закончиться на переводе строки")
	}
	if !strings.HasPrefix(parts[1], "б") || !strings.HasSuffix(parts[1], strings.Repeat("в", 500)) {
		t.Fatalf("неожиданная вторая часть")
	}
}

func TestSplitTextFallsBackToSpace(t *testing.T) {
	words := strings.TrimSpace(strings.Repeat("слово ", 300))

	parts := SplitText(words, CaptionLimit)
	if len(parts) < 2 {
		t.Fatalf("ожидали несколько частей, получили %d", len(parts))
	}
	for i, part := range parts {
		if n := len([]rune(part)); n > CaptionLimit {
			t.Fatalf("часть %d длиннее лимита: %d", i, n)
		}
		if strings.HasPrefix(part, "лово") || strings.HasSuffix(part, "сл") {
			t.Fatalf("часть %d разрезала слово", i)
		}
	}
	if strings.Join(parts, " ") != words {
		t.Fatalf("после склейки текст должен совпасть с исходным")
	}
}

func TestSplitTextHardCut(t *testing.T) {
	parts := SplitText(strings.Repeat("x", 25), 10)
	if len(parts) != 3 || parts[2] != "xxxxx" {
		t.Fatalf("ожидали разрез по лимиту, получили %q", parts)
	}
}

func TestSplitMessageShortAndEmpty(t *testing.T) {
	if parts := SplitMessage("  привет  "); len(parts) != 1 || parts[0] != "привет" {
		t.Fatalf("ожидали одну часть, получили %q", parts)
	}
	if parts := SplitMessage("   \n  "); len(parts) != 0 {
		t.Fatalf("пустой текст не должен давать частей, получили %d", len(parts))
	}
}
