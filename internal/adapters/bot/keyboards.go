package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/recurrence"
)

func button(text string, c Command) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, c.Data())
}

func markup(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	m := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &m
}

func backRow(text string, c Command) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(button(text, c))
}

func mainKeyboard(isAdmin bool) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			button("➕ Добавить канал", cmd(ActionAddChannel)),
			button("📚 Мои каналы", cmd(ActionMyChannels)),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("ℹ️ Помощь", cmd(ActionHelp)),
		),
	}
	if isAdmin {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("🛠 Админ-панель", cmd(ActionAdmin))))
	}
	return markup(rows...)
}

func cancelKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(tgbotapi.NewInlineKeyboardRow(button("❌ Отмена", cmd(ActionCancel))))
}

func channelsKeyboard(list []domain.Channel) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list)+2)
	for _, ch := range list {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("📢 "+ch.DisplayName(), cmdID(ActionChannel, ch.ID))))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(button("➕ Добавить канал", cmd(ActionAddChannel))),
		backRow("⬅️ Главное меню", cmd(ActionMenu)),
	)
	return markup(rows...)
}

func channelKeyboard(ch domain.Channel, list []domain.Post) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list)+3)
	for _, p := range list {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("📝 "+p.Preview(), cmdID(ActionPost, p.ID))))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			button("✏️ Новый пост", cmdID(ActionNewPost, ch.ID)),
			button("🗑 Удалить канал", cmdID(ActionDeleteChannel, ch.ID)),
		),
		backRow("⬅️ Мои каналы", cmd(ActionMyChannels)),
	)
	return markup(rows...)
}

func postKeyboard(p domain.Post) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			button("⏰ Запланировать", cmdID(ActionScheduleMenu, p.ID)),
			button("📅 Расписания", cmdID(ActionPostSchedules, p.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("✏️ Изменить", cmdID(ActionEditPost, p.ID)),
			button("🗑 Удалить", cmdID(ActionDeletePost, p.ID)),
		),
		backRow("⬅️ К каналу", cmdID(ActionChannel, p.ChannelID)),
	)
}

func confirmKeyboard(yes, no Command) *tgbotapi.InlineKeyboardMarkup {
	return markup(tgbotapi.NewInlineKeyboardRow(
		button("✅ Да", yes),
		button("❌ Нет", no),
	))
}

func scheduleOptionsKeyboard(postID int64) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			button("📆 Ежедневно", Command{Action: ActionScheduleKind, ID: postID, Kind: domain.RecurrenceDaily}),
			button("🔁 Каждые 2 дня", Command{Action: ActionScheduleKind, ID: postID, Kind: domain.RecurrenceEveryTwoDays}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("🗓 Еженедельно", Command{Action: ActionScheduleKind, ID: postID, Kind: domain.RecurrenceWeekly}),
			button("1️⃣ Один раз", cmdID(ActionScheduleOnce, postID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("⚙️ Своё cron-выражение", cmdID(ActionScheduleCustom, postID)),
		),
		backRow("⬅️ К посту", cmdID(ActionPost, postID)),
	)
}

func weekdayKeyboard(postID int64) *tgbotapi.InlineKeyboardMarkup {
	order := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 5)
	var row []tgbotapi.InlineKeyboardButton
	for _, day := range order {
		row = append(row, button(recurrence.WeekdayName(day), Command{Action: ActionScheduleWeekday, ID: postID, Kind: domain.RecurrenceWeekly, Weekday: day}))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, backRow("⬅️ Назад", cmdID(ActionScheduleMenu, postID)))
	return markup(rows...)
}

func timeKeyboard(postID int64, kind domain.RecurrenceKind, weekday time.Weekday) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(button("🕛 В полдень (12:00)", Command{Action: ActionScheduleNoon, ID: postID, Kind: kind, Weekday: weekday})),
		tgbotapi.NewInlineKeyboardRow(button("❌ Отмена", cmd(ActionCancel))),
	)
}

func schedulesKeyboard(postID int64, list []domain.Schedule) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list)+1)
	for i := range list {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(fmt.Sprintf("🗑 Отменить №%d", i+1), cmdID(ActionCancelSchedule, list[i].ID))))
	}
	rows = append(rows, backRow("⬅️ К посту", cmdID(ActionPost, postID)))
	return markup(rows...)
}

func adminKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			button("📊 Статистика", cmd(ActionAdminStats)),
			button("📋 Все каналы", cmd(ActionAdminChannels)),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("📢 Рассылка", cmd(ActionBroadcast)),
		),
		backRow("⬅️ Главное меню", cmd(ActionMenu)),
	)
}

func adminChannelsKeyboard(list []domain.Channel) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list)+1)
	for _, ch := range list {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(channelBadge(ch)+ch.DisplayName(), cmdID(ActionAdminChannel, ch.ID))))
	}
	rows = append(rows, backRow("⬅️ Админ-панель", cmd(ActionAdmin)))
	return markup(rows...)
}

func adminChannelKeyboard(ch domain.Channel) *tgbotapi.InlineKeyboardMarkup {
	ban := "🚫 Забанить"
	if ch.IsBanned {
		ban = "✅ Разбанить"
	}
	vip := "⭐ Сделать VIP"
	if ch.IsVIP {
		vip = "☆ Снять VIP"
	}
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			button(ban, cmdID(ActionToggleBan, ch.ID)),
			button(vip, cmdID(ActionToggleVIP, ch.ID)),
		),
		backRow("⬅️ Все каналы", cmd(ActionAdminChannels)),
	)
}

func channelBadge(ch domain.Channel) string {
	switch {
	case ch.IsBanned:
		return "🚫 "
	case ch.IsVIP:
		return "⭐ "
	}
	return "📢 "
}
