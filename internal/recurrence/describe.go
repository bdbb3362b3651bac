package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tg-channel-scheduler/internal/domain"
)

var weekdayNames = [...]string{"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота"}

var weekdayShort = [...]string{"вс", "пн", "вт", "ср", "чт", "пт", "сб"}

// WeekdayName возвращает название дня недели в cron-нумерации, где 0 означает воскресенье.
func WeekdayName(day time.Weekday) string {
	if day < time.Sunday || day > time.Saturday {
		return "не указан"
	}
	return weekdayNames[day]
}

// Describe возвращает человекочитаемое описание выражения.
func Describe(expr string) string {
	fields := strings.Fields(expr)
	if len(fields) != fieldCount {
		return "Cron: " + expr
	}
	if Normalize(expr) == "0 * * * *" {
		return "Каждый час"
	}
	minute, errMinute := strconv.Atoi(fields[0])
	hour, errHour := strconv.Atoi(fields[1])
	if errMinute != nil || errHour != nil {
		return "Cron: " + Normalize(expr)
	}
	at := Clock{Hour: hour, Minute: minute}.String()
	dom, month, dow := fields[2], fields[3], fields[4]
	switch {
	case dom == "*" && month == "*" && dow == "*":
		return "Ежедневно в " + at
	case dom == "*" && month == "*":
		day, err := strconv.Atoi(dow)
		if err == nil && day >= 0 && day <= 6 {
			return fmt.Sprintf("Еженедельно, %s в %s", WeekdayName(time.Weekday(day)), at)
		}
	case dom == "*/2" && month == "*" && dow == "*":
		return "Каждые 2 дня в " + at
	}
	return "Cron: " + Normalize(expr)
}

// FormatTime форматирует момент в часовом поясе loc.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return fmt.Sprintf("%s, %s", weekdayShort[local.Weekday()], local.Format("02.01.2006 15:04"))
}

// DescribeSchedule формирует описание записи расписания для пользователя.
func DescribeSchedule(s domain.Schedule, loc *time.Location) string {
	kind := "Разовая публикация"
	if s.Recurring() {
		kind = Describe(s.CronExpr)
	}
	return fmt.Sprintf("📅 %s\n⏰ Следующая публикация: %s", kind, FormatTime(s.NextRunAt, loc))
}
