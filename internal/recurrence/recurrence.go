// Package recurrence разбирает cron-выражения расписаний и вычисляет время следующей публикации.
package recurrence

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"tg-channel-scheduler/internal/domain"
)

const fieldCount = 5

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

var (
	// ErrInvalidClock возвращается при вводе времени не в формате ЧЧ:ММ.
	ErrInvalidClock = fmt.Errorf("%w: время должно быть в формате ЧЧ:ММ", domain.ErrValidation)
	// ErrInvalidExpression возвращается для некорректного cron-выражения.
	ErrInvalidExpression = fmt.Errorf("%w: некорректное cron-выражение", domain.ErrValidation)
	// ErrInvalidOnce возвращается для некорректной даты разовой публикации.
	ErrInvalidOnce = fmt.Errorf("%w: дата должна быть в формате ГГГГ-ММ-ДД ЧЧ:ММ", domain.ErrValidation)
	// ErrOnceInPast возвращается, если момент разовой публикации уже прошёл.
	ErrOnceInPast = fmt.Errorf("%w: момент публикации уже прошёл", domain.ErrValidation)
)

var clockRegex = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

// Clock хранит время суток без даты.
type Clock struct {
	Hour   int
	Minute int
}

// Noon используется, если время не указано.
var Noon = Clock{Hour: 12}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

// ParseClock парсит время формата ЧЧ:ММ (часы допускаются одной цифрой).
func ParseClock(input string) (Clock, error) {
	matches := clockRegex.FindStringSubmatch(strings.TrimSpace(input))
	if len(matches) != 3 {
		return Clock{}, ErrInvalidClock
	}
	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])
	clock := Clock{Hour: hour, Minute: minute}
	if !clock.valid() {
		return Clock{}, ErrInvalidClock
	}
	return clock, nil
}

func parse(expr string) (cron.Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != fieldCount {
		return nil, fmt.Errorf("ожидали %d полей, получили %d", fieldCount, len(fields))
	}
	return parser.Parse(strings.Join(fields, " "))
}

// Normalize схлопывает пробелы в выражении.
func Normalize(expr string) string {
	return strings.Join(strings.Fields(expr), " ")
}

// Validate проверяет синтаксис выражения и наличие хотя бы одного будущего запуска.
func Validate(expr string) bool {
	schedule, err := parse(expr)
	if err != nil {
		return false
	}
	return !schedule.Next(time.Now()).IsZero()
}

// Build собирает выражение для одного из стандартных видов расписания.
// Если at == nil, используется полдень. weekday учитывается только для еженедельного вида.
func Build(kind domain.RecurrenceKind, at *Clock, weekday time.Weekday) (string, error) {
	clock := Noon
	if at != nil {
		clock = *at
	}
	if !clock.valid() {
		return "", ErrInvalidClock
	}
	switch kind {
	case domain.RecurrenceDaily:
		return fmt.Sprintf("%d %d * * *", clock.Minute, clock.Hour), nil
	case domain.RecurrenceWeekly:
		if weekday < time.Sunday || weekday > time.Saturday {
			return "", fmt.Errorf("%w: некорректный день недели %d", domain.ErrValidation, weekday)
		}
		return fmt.Sprintf("%d %d * * %d", clock.Minute, clock.Hour, int(weekday)), nil
	case domain.RecurrenceEveryTwoDays:
		return fmt.Sprintf("%d %d */2 * *", clock.Minute, clock.Hour), nil
	}
	return "", fmt.Errorf("%w: неизвестный вид расписания %q", domain.ErrValidation, kind)
}

// Next возвращает первый запуск строго после ref, вычисленный в часовом поясе loc.
// Второе значение false означает, что выражение не удалось вычислить и планировать нечего.
func Next(expr string, ref time.Time, loc *time.Location) (time.Time, bool) {
	schedule, err := parse(expr)
	if err != nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	next := schedule.Next(ref.In(loc))
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

var onceLayouts = []string{"2006-01-02 15:04", "02.01.2006 15:04"}

// ParseOnce парсит момент разовой публикации в часовом поясе loc. Момент должен быть позже now.
func ParseOnce(input string, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value := strings.Join(strings.Fields(input), " ")
	var (
		at  time.Time
		err error
	)
	for _, layout := range onceLayouts {
		at, err = time.ParseInLocation(layout, value, loc)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, ErrInvalidOnce
	}
	if !at.After(now) {
		return time.Time{}, ErrOnceInPast
	}
	return at, nil
}

// IsInvalid сообщает, что ошибка вызвана вводом пользователя.
func IsInvalid(err error) bool {
	return errors.Is(err, domain.ErrValidation)
}
