package bot

import (
	"fmt"
	"strings"
	"time"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/recurrence"
)

func buildStartMessage() string {
	lines := []string{
		"👋 Добро пожаловать! Я публикую посты в ваших каналах по расписанию.",
		"",
		"Как пользоваться ботом:",
		"1. ➕ Добавьте меня администратором канала с правом публикации сообщений.",
		"2. Нажмите \"Добавить канал\" и перешлите мне любое сообщение из канала.",
		"3. ✏️ Создайте пост: текст, фото, видео, документ или другое вложение.",
		"4. ⏰ Выберите расписание: ежедневно, каждые 2 дня, еженедельно, один раз или своё cron-выражение.",
		"",
		"После каждой публикации я пришлю отчёт. Если бот потеряет доступ к каналу, расписания этого канала остановятся.",
	}
	return strings.Join(lines, "\n")
}

func buildHelpMessage(loc *time.Location) string {
	lines := []string{
		"📖 Команды:",
		"• /start — главное меню.",
		"• /channels — мои каналы.",
		"• /cancel — отменить текущее действие.",
		"• /help — эта справка.",
		"",
		"Расписания:",
		"• Время вводится в формате ЧЧ:ММ, например 09:00 или 21:30.",
		"• Разовая публикация: ГГГГ-ММ-ДД ЧЧ:ММ, например 2025-12-31 18:00.",
		"• Cron-выражение из пяти полей: минута час день месяц день_недели.",
		"",
		fmt.Sprintf("Часовой пояс бота: %s.", loc.String()),
	}
	return strings.Join(lines, "\n")
}

func buildCronHelp() string {
	lines := []string{
		"⚙️ Отправьте cron-выражение из пяти полей:",
		"минута час день месяц день_недели",
		"",
		"Примеры:",
		"• 0 9 * * * — каждый день в 09:00",
		"• 30 14 * * 1 — по понедельникам в 14:30",
		"• 0 */6 * * * — каждые 6 часов",
		"",
		"Дни недели: 0 — воскресенье, 1 — понедельник … 6 — суббота.",
	}
	return strings.Join(lines, "\n")
}

func buildTimePrompt(kind domain.RecurrenceKind, weekday time.Weekday, loc *time.Location) string {
	var what string
	switch kind {
	case domain.RecurrenceDaily:
		what = "ежедневной публикации"
	case domain.RecurrenceEveryTwoDays:
		what = "публикации каждые 2 дня"
	case domain.RecurrenceWeekly:
		what = "публикации по дню «" + recurrence.WeekdayName(weekday) + "»"
	}
	return fmt.Sprintf("🕐 Отправьте время %s в формате ЧЧ:ММ (например, 09:00).\nЧасовой пояс: %s.\n\nИли нажмите кнопку, чтобы публиковать в полдень.", what, loc.String())
}

func buildOncePrompt(loc *time.Location, now time.Time) string {
	example := now.In(loc).Add(24*time.Hour).Format("2006-01-02") + " 18:00"
	return fmt.Sprintf("📅 Отправьте дату и время публикации в формате ГГГГ-ММ-ДД ЧЧ:ММ.\nНапример: %s\nЧасовой пояс: %s.", example, loc.String())
}

func buildChannelsText(list []domain.Channel) string {
	if len(list) == 0 {
		return "У вас пока нет каналов. Нажмите \"Добавить канал\", чтобы начать."
	}
	return fmt.Sprintf("📚 Ваши каналы (%d). Выберите канал:", len(list))
}

func buildChannelText(ch domain.Channel, list []domain.Post) string {
	lines := []string{fmt.Sprintf("📢 %s", ch.DisplayName())}
	if ch.IsBanned {
		lines = append(lines, "🚫 Канал заблокирован администратором, публикации не выполняются.")
	}
	if len(list) == 0 {
		lines = append(lines, "", "Постов пока нет. Нажмите \"Новый пост\".")
	} else {
		lines = append(lines, "", fmt.Sprintf("Постов: %d. Выберите пост:", len(list)))
	}
	return strings.Join(lines, "\n")
}

func buildPostText(p domain.Post) string {
	lines := []string{"📝 Пост"}
	if !p.Content.Media.IsZero() {
		lines = append(lines, fmt.Sprintf("Вложение: %s", mediaLabel(p.Content.Media.Kind)))
	}
	if text := strings.TrimSpace(p.Content.Text); text != "" {
		lines = append(lines, "", text)
	}
	return strings.Join(lines, "\n")
}

func buildSchedulesText(list []domain.Schedule, loc *time.Location) string {
	if len(list) == 0 {
		return "У поста нет активных расписаний."
	}
	parts := make([]string, 0, len(list)+1)
	parts = append(parts, "📅 Активные расписания поста:")
	for i, s := range list {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, recurrence.DescribeSchedule(s, loc)))
	}
	return strings.Join(parts, "\n\n")
}

func buildScheduledText(description string, ch domain.Channel, next time.Time, loc *time.Location) string {
	return fmt.Sprintf("✅ Пост запланирован в канал «%s».\n📅 %s\n⏰ Первая публикация: %s", ch.DisplayName(), description, recurrence.FormatTime(next, loc))
}

func buildStatsText(stats domain.Stats) string {
	lines := []string{
		"📊 Статистика бота",
		"",
		fmt.Sprintf("Каналов: %d", stats.TotalChannels),
		fmt.Sprintf("⭐ VIP: %d", stats.VIPChannels),
		fmt.Sprintf("🚫 Забанено: %d", stats.BannedChannels),
		fmt.Sprintf("Постов: %d", stats.TotalPosts),
		fmt.Sprintf("Активных расписаний: %d", stats.ActiveSchedules),
	}
	return strings.Join(lines, "\n")
}

func buildAdminChannelText(ch domain.Channel) string {
	status := "активен"
	if ch.IsBanned {
		status = "забанен"
	}
	vip := "нет"
	if ch.IsVIP {
		vip = "да"
	}
	return fmt.Sprintf("📢 %s\nChat ID: %d\nВладелец: %d\nСтатус: %s\nVIP: %s", ch.DisplayName(), ch.ChatID, ch.OwnerID, status, vip)
}

func mediaLabel(kind domain.MediaKind) string {
	switch kind {
	case domain.MediaPhoto:
		return "фото"
	case domain.MediaVideo:
		return "видео"
	case domain.MediaAudio:
		return "аудио"
	case domain.MediaVoice:
		return "голосовое"
	case domain.MediaVideoNote:
		return "видеосообщение"
	case domain.MediaSticker:
		return "стикер"
	case domain.MediaAnimation:
		return "GIF"
	}
	return "документ"
}
