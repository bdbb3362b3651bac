package config

import (
	"errors"
	"testing"
)

func TestNormalizeTimezone(t *testing.T) {
	cases := map[string]string{
		"Africa/Algiers":   "Africa/Algiers",
		"africa/algiers":   "Africa/Algiers",
		"europe/moscow":    "Europe/Moscow",
		"America/New York": "America/New_York",
		" Europe/Berlin ":  "Europe/Berlin",
	}
	for input, expected := range cases {
		got, err := normalizeTimezone(input)
		if err != nil {
			t.Fatalf("не ожидали ошибку для %q: %v", input, err)
		}
		if got != expected {
			t.Fatalf("ожидали %s, получили %s", expected, got)
		}
	}
}

func TestLocationRejectsGarbage(t *testing.T) {
	cfg := AppConfig{TZ: "Марс/Олимп"}
	if _, err := cfg.Location(); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("ожидали ErrInvalidTimezone, получили %v", err)
	}
	cfg.TZ = ""
	if _, err := cfg.Location(); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("пустой часовой пояс недопустим")
	}
}
