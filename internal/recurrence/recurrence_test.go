package recurrence

import (
	"errors"
	"testing"
	"time"

	"tg-channel-scheduler/internal/domain"
)

var testLoc = time.FixedZone("UTC+1", 3600)

func mustBuild(t *testing.T, kind domain.RecurrenceKind, at *Clock, weekday time.Weekday) string {
	t.Helper()
	expr, err := Build(kind, at, weekday)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	return expr
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.RecurrenceKind
		at      *Clock
		weekday time.Weekday
		want    string
	}{
		{name: "daily", kind: domain.RecurrenceDaily, at: &Clock{Hour: 14, Minute: 30}, want: "30 14 * * *"},
		{name: "daily noon by default", kind: domain.RecurrenceDaily, want: "0 12 * * *"},
		{name: "weekly", kind: domain.RecurrenceWeekly, at: &Clock{Hour: 9}, weekday: time.Monday, want: "0 9 * * 1"},
		{name: "weekly sunday", kind: domain.RecurrenceWeekly, at: &Clock{Hour: 9}, weekday: time.Sunday, want: "0 9 * * 0"},
		{name: "every two days", kind: domain.RecurrenceEveryTwoDays, at: &Clock{Hour: 18}, want: "0 18 */2 * *"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustBuild(t, tt.kind, tt.at, tt.weekday)
			if got != tt.want {
				t.Fatalf("Build(%s) = %q, want %q", tt.kind, got, tt.want)
			}
			if !Validate(got) {
				t.Fatalf("выражение %q должно проходить проверку", got)
			}
		})
	}
}

func TestBuildRejectsUnknownKind(t *testing.T) {
	_, err := Build("once", nil, 0)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("ожидали ошибку валидации, получили %v", err)
	}
	if _, err := Build(domain.RecurrenceWeekly, nil, time.Weekday(7)); err == nil {
		t.Fatalf("ожидали ошибку для дня недели 7")
	}
	if _, err := Build(domain.RecurrenceDaily, &Clock{Hour: 24}, 0); err == nil {
		t.Fatalf("ожидали ошибку для 24:00")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]bool{
		"0 9 * * *":      true,
		"30 14 * * 1":    true,
		"0 */6 * * *":    true,
		"  0   9 * * * ": true,
		"":               false,
		"* * * *":        false,
		"0 0 * * * *":    false,
		"61 * * * *":     false,
		"0 25 * * *":     false,
		"@daily":         false,
		"0 0 30 2 *":     false,
		"abc":            false,
	}
	for expr, want := range cases {
		if got := Validate(expr); got != want {
			t.Fatalf("Validate(%q) = %v, want %v", expr, got, want)
		}
	}
}

func TestNextDailySameDayAndNextDay(t *testing.T) {
	expr := mustBuild(t, domain.RecurrenceDaily, &Clock{Hour: 14, Minute: 30}, 0)

	before := time.Date(2025, 3, 10, 8, 0, 0, 0, testLoc)
	next, ok := Next(expr, before, testLoc)
	if !ok {
		t.Fatalf("ожидали следующий запуск")
	}
	want := time.Date(2025, 3, 10, 14, 30, 0, 0, testLoc)
	if !next.Equal(want) {
		t.Fatalf("ожидали %s, получили %s", want, next)
	}

	after := time.Date(2025, 3, 10, 15, 0, 0, 0, testLoc)
	next, ok = Next(expr, after, testLoc)
	if !ok {
		t.Fatalf("ожидали следующий запуск")
	}
	want = time.Date(2025, 3, 11, 14, 30, 0, 0, testLoc)
	if !next.Equal(want) {
		t.Fatalf("ожидали %s, получили %s", want, next)
	}
}

func TestNextEvaluatesInTimezone(t *testing.T) {
	// 08:00 UTC == 09:00 в testLoc, поэтому 09:00 сегодня уже не подходит.
	ref := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	next, ok := Next("0 9 * * *", ref, testLoc)
	if !ok {
		t.Fatalf("ожидали следующий запуск")
	}
	want := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("ожидали %s, получили %s", want, next.UTC())
	}
	if next.Location() != testLoc {
		t.Fatalf("ожидали результат в поясе %s", testLoc)
	}
}

func TestNextStrictlyAfterReference(t *testing.T) {
	exprs := []string{"0 9 * * *", "*/5 * * * *", "0 18 */2 * *", "30 14 * * 1", "0 0 1 1 *"}
	refs := []time.Time{
		time.Date(2025, 1, 31, 18, 0, 0, 0, testLoc),
		time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc),
		time.Date(2025, 12, 31, 23, 59, 59, 0, testLoc),
		time.Date(2024, 2, 29, 0, 0, 0, 0, testLoc),
	}
	for _, expr := range exprs {
		for _, ref := range refs {
			next, ok := Next(expr, ref, testLoc)
			if !ok {
				t.Fatalf("ожидали запуск для %q", expr)
			}
			if !next.After(ref) {
				t.Fatalf("Next(%q, %s) = %s, должно быть строго позже", expr, ref, next)
			}
		}
	}
}

func TestNextWeeklyOnlyOnWeekday(t *testing.T) {
	expr := mustBuild(t, domain.RecurrenceWeekly, &Clock{Hour: 9}, time.Monday)
	ref := time.Date(2025, 3, 12, 10, 0, 0, 0, testLoc)
	var prev time.Time
	for i := 0; i < 6; i++ {
		next, ok := Next(expr, ref, testLoc)
		if !ok {
			t.Fatalf("ожидали запуск")
		}
		if next.Weekday() != time.Monday {
			t.Fatalf("ожидали понедельник, получили %s", next.Weekday())
		}
		if next.Hour() != 9 || next.Minute() != 0 {
			t.Fatalf("ожидали 09:00, получили %s", next.Format("15:04"))
		}
		if !prev.IsZero() && next.Sub(prev) != 7*24*time.Hour {
			t.Fatalf("ожидали интервал 7 дней, получили %s", next.Sub(prev))
		}
		prev = next
		ref = next
	}
}

func TestNextEveryTwoDaysResetsAtMonthEnd(t *testing.T) {
	expr := mustBuild(t, domain.RecurrenceEveryTwoDays, &Clock{Hour: 18}, 0)
	ref := time.Date(2025, 1, 29, 19, 0, 0, 0, testLoc)

	first, ok := Next(expr, ref, testLoc)
	if !ok {
		t.Fatalf("ожидали запуск")
	}
	if want := time.Date(2025, 1, 31, 18, 0, 0, 0, testLoc); !first.Equal(want) {
		t.Fatalf("ожидали %s, получили %s", want, first)
	}

	// */2 в поле дня месяца означает 1,3,...,31, поэтому после 31 января сразу идёт 1 февраля.
	second, ok := Next(expr, first, testLoc)
	if !ok {
		t.Fatalf("ожидали запуск")
	}
	if want := time.Date(2025, 2, 1, 18, 0, 0, 0, testLoc); !second.Equal(want) {
		t.Fatalf("ожидали %s, получили %s", want, second)
	}
	if gap := second.Sub(first); gap != 24*time.Hour {
		t.Fatalf("на границе месяца ожидали интервал 24ч, получили %s", gap)
	}

	third, _ := Next(expr, second, testLoc)
	if gap := third.Sub(second); gap != 48*time.Hour {
		t.Fatalf("внутри месяца ожидали интервал 48ч, получили %s", gap)
	}
}

func TestNextInvalidExpression(t *testing.T) {
	for _, expr := range []string{"", "bad", "0 0 30 2 *", "99 * * * *"} {
		if _, ok := Next(expr, time.Now(), testLoc); ok {
			t.Fatalf("ожидали отсутствие запуска для %q", expr)
		}
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]*Clock{
		"14:30":   {Hour: 14, Minute: 30},
		" 9:05 ":  {Hour: 9, Minute: 5},
		"00:00":   {Hour: 0, Minute: 0},
		"23:59":   {Hour: 23, Minute: 59},
		"24:00":   nil,
		"9:5":     nil,
		"9-15":    nil,
		"":        nil,
		"12:60":   nil,
		"12:30pm": nil,
	}
	for input, want := range cases {
		got, err := ParseClock(input)
		if want == nil {
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("ожидали ошибку валидации для %q, получили %v", input, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("не ожидали ошибку для %q: %v", input, err)
		}
		if got != *want {
			t.Fatalf("ParseClock(%q) = %v, want %v", input, got, *want)
		}
	}
}

func TestParseOnce(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, testLoc)
	at, err := ParseOnce("2025-03-11 09:30", testLoc, now)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if want := time.Date(2025, 3, 11, 9, 30, 0, 0, testLoc); !at.Equal(want) {
		t.Fatalf("ожидали %s, получили %s", want, at)
	}
	if _, err := ParseOnce("11.03.2025 09:30", testLoc, now); err != nil {
		t.Fatalf("не ожидали ошибку для формата ДД.ММ.ГГГГ: %v", err)
	}
	if _, err := ParseOnce("2025-03-09 09:30", testLoc, now); !errors.Is(err, ErrOnceInPast) {
		t.Fatalf("ожидали ErrOnceInPast, получили %v", err)
	}
	if _, err := ParseOnce("завтра", testLoc, now); !errors.Is(err, ErrInvalidOnce) {
		t.Fatalf("ожидали ErrInvalidOnce, получили %v", err)
	}
}

func TestDescribe(t *testing.T) {
	cases := map[string]string{
		"30 14 * * *":  "Ежедневно в 14:30",
		"0 9 * * 1":    "Еженедельно, понедельник в 09:00",
		"0 18 */2 * *": "Каждые 2 дня в 18:00",
		"0 * * * *":    "Каждый час",
		"0 */6 * * *":  "Cron: 0 */6 * * *",
		"0 9 1 * *":    "Cron: 0 9 1 * *",
	}
	for expr, want := range cases {
		if got := Describe(expr); got != want {
			t.Fatalf("Describe(%q) = %q, want %q", expr, got, want)
		}
	}
}
