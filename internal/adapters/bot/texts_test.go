package bot

import (
	"strings"
	"testing"
	"time"
)

func TestBuildOncePromptSuggestsTomorrow(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	now := time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC)

	text := buildOncePrompt(loc, now)
	if !strings.Contains(text, "2025-03-12 18:00") {
		t.Fatalf("пример должен быть на следующий день в часовом поясе бота: %q", text)
	}
	if !strings.Contains(text, "UTC+3") {
		t.Fatalf("ожидали название часового пояса в подсказке: %q", text)
	}
}
