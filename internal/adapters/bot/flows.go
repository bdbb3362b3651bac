package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/recurrence"
	"tg-channel-scheduler/internal/usecase/channels"
	"tg-channel-scheduler/internal/usecase/posts"
	"tg-channel-scheduler/internal/usecase/schedule"
)

// Каналы.

func (h *Handler) onChannelForward(ctx context.Context, msg *tgbotapi.Message) {
	chatID, userID := msg.Chat.ID, msg.From.ID
	if msg.ForwardFromChat == nil {
		h.reply(chatID, "Перешлите сообщение именно из канала. Пересылка от пользователя не подходит.", cancelKeyboard())
		return
	}
	ch, err := h.uc.Channels.LinkChannel(ctx, userID, channels.Forwarded{
		ChatID: msg.ForwardFromChat.ID,
		Type:   msg.ForwardFromChat.Type,
		Title:  msg.ForwardFromChat.Title,
	})
	switch {
	case errors.Is(err, domain.ErrChannelExists):
		h.clearState(ctx, userID)
		h.reply(chatID, "Этот канал уже добавлен.", mainKeyboard(h.uc.Admin.IsAdmin(userID)))
		return
	case errors.Is(err, channels.ErrBotNotAdmin):
		h.reply(chatID, "Бот не является администратором канала или не может публиковать сообщения. Выдайте права и перешлите сообщение снова.", cancelKeyboard())
		return
	case errors.Is(err, channels.ErrNotChannel):
		h.reply(chatID, "Это сообщение переслано не из канала. Перешлите пост из канала.", cancelKeyboard())
		return
	case err != nil:
		h.replyError(chatID, "не удалось добавить канал", err)
		return
	}
	h.clearState(ctx, userID)
	h.log.Info().Int64("user", userID).Int64("chat", ch.ChatID).Msg("bot: канал добавлен")
	h.reply(chatID, "✅ Канал «"+ch.DisplayName()+"» добавлен. Теперь создайте первый пост.", channelKeyboard(ch, nil))
}

func (h *Handler) showChannels(ctx context.Context, chatID, userID int64) {
	list, err := h.uc.Channels.ListChannels(ctx, userID)
	if err != nil {
		h.replyError(chatID, "не удалось получить каналы", err)
		return
	}
	h.reply(chatID, buildChannelsText(list), channelsKeyboard(list))
}

func (h *Handler) showChannel(ctx context.Context, chatID, userID, channelID int64) {
	ch, err := h.uc.Channels.GetOwned(ctx, userID, channelID)
	if err != nil {
		h.replyError(chatID, "не удалось получить канал", err)
		return
	}
	list, err := h.uc.Posts.ListChannelPosts(ctx, userID, channelID)
	if err != nil {
		h.replyError(chatID, "не удалось получить посты", err)
		return
	}
	h.reply(chatID, buildChannelText(ch, list), channelKeyboard(ch, list))
}

func (h *Handler) askDeleteChannel(ctx context.Context, chatID, userID, channelID int64) {
	ch, err := h.uc.Channels.GetOwned(ctx, userID, channelID)
	if err != nil {
		h.replyError(chatID, "не удалось получить канал", err)
		return
	}
	h.reply(chatID, "Удалить канал «"+ch.DisplayName()+"» вместе с постами? Расписания канала будут остановлены.",
		confirmKeyboard(cmdID(ActionConfirmDeleteChannel, ch.ID), cmdID(ActionChannel, ch.ID)))
}

func (h *Handler) deleteChannel(ctx context.Context, chatID, userID, channelID int64) {
	ch, err := h.uc.Channels.RemoveChannel(ctx, userID, channelID)
	if err != nil {
		h.replyError(chatID, "не удалось удалить канал", err)
		return
	}
	h.log.Info().Int64("user", userID).Int64("chat", ch.ChatID).Msg("bot: канал удалён")
	h.reply(chatID, "🗑 Канал «"+ch.DisplayName()+"» удалён.", mainKeyboard(h.uc.Admin.IsAdmin(userID)))
}

// Посты.

func (h *Handler) startNewPost(ctx context.Context, chatID, userID, channelID int64) {
	if _, err := h.uc.Channels.GetOwned(ctx, userID, channelID); err != nil {
		h.replyError(chatID, "не удалось получить канал", err)
		return
	}
	h.setState(ctx, userID, domain.ComposingPost{ChannelID: channelID})
	h.reply(chatID, "✏️ Отправьте текст поста или медиа с подписью: фото, видео, документ, аудио, голосовое, стикер или GIF.", cancelKeyboard())
}

func (h *Handler) startEditPost(ctx context.Context, chatID, userID, postID int64) {
	p, err := h.uc.Posts.GetOwned(ctx, userID, postID)
	if err != nil {
		h.replyError(chatID, "не удалось получить пост", err)
		return
	}
	h.setState(ctx, userID, domain.ComposingPost{ChannelID: p.ChannelID, EditPostID: p.ID})
	h.reply(chatID, "✏️ Отправьте новое содержимое поста. Текст и вложение будут заменены полностью.", cancelKeyboard())
}

func (h *Handler) onPostContent(ctx context.Context, msg *tgbotapi.Message, st domain.ComposingPost) {
	chatID, userID := msg.Chat.ID, msg.From.ID
	content := extractContent(msg)
	if content.IsEmpty() {
		h.reply(chatID, "Пост не может быть пустым. Отправьте текст или медиа.", cancelKeyboard())
		return
	}

	var (
		p   domain.Post
		err error
	)
	if st.EditPostID != 0 {
		p, err = h.uc.Posts.UpdatePost(ctx, userID, st.EditPostID, content)
	} else {
		p, err = h.uc.Posts.CreatePost(ctx, userID, st.ChannelID, content)
	}
	if errors.Is(err, posts.ErrEmptyPost) {
		h.reply(chatID, "Пост не может быть пустым. Отправьте текст или медиа.", cancelKeyboard())
		return
	}
	if err != nil {
		h.clearState(ctx, userID)
		h.replyError(chatID, "не удалось сохранить пост", err)
		return
	}
	h.clearState(ctx, userID)
	h.reply(chatID, "✅ Пост сохранён.\n\n"+buildPostText(p), postKeyboard(p))
}

func (h *Handler) showPost(ctx context.Context, chatID, userID, postID int64) {
	p, err := h.uc.Posts.GetOwned(ctx, userID, postID)
	if err != nil {
		h.replyError(chatID, "не удалось получить пост", err)
		return
	}
	h.reply(chatID, buildPostText(p), postKeyboard(p))
}

func (h *Handler) askDeletePost(ctx context.Context, chatID, userID, postID int64) {
	p, err := h.uc.Posts.GetOwned(ctx, userID, postID)
	if err != nil {
		h.replyError(chatID, "не удалось получить пост", err)
		return
	}
	h.reply(chatID, "Удалить пост? Его расписания больше не будут выполняться.",
		confirmKeyboard(cmdID(ActionConfirmDeletePost, p.ID), cmdID(ActionPost, p.ID)))
}

func (h *Handler) deletePost(ctx context.Context, chatID, userID, postID int64) {
	p, err := h.uc.Posts.DeletePost(ctx, userID, postID)
	if err != nil {
		h.replyError(chatID, "не удалось удалить пост", err)
		return
	}
	h.reply(chatID, "🗑 Пост удалён.", markup(backRow("⬅️ К каналу", cmdID(ActionChannel, p.ChannelID))))
}

// Расписания.

func (h *Handler) showScheduleMenu(ctx context.Context, chatID, userID, postID int64) {
	if _, err := h.uc.Posts.GetOwned(ctx, userID, postID); err != nil {
		h.replyError(chatID, "не удалось получить пост", err)
		return
	}
	h.reply(chatID, "⏰ Как публиковать пост?", scheduleOptionsKeyboard(postID))
}

func (h *Handler) onScheduleKind(ctx context.Context, chatID, userID int64, c Command) {
	if c.Kind == domain.RecurrenceWeekly {
		h.reply(chatID, "📆 Выберите день недели:", weekdayKeyboard(c.ID))
		return
	}
	h.askScheduleTime(ctx, chatID, userID, c.ID, c.Kind, 0)
}

func (h *Handler) askScheduleTime(ctx context.Context, chatID, userID, postID int64, kind domain.RecurrenceKind, weekday time.Weekday) {
	h.setState(ctx, userID, domain.AwaitingScheduleTime{PostID: postID, Kind: kind, Weekday: weekday})
	h.reply(chatID, buildTimePrompt(kind, weekday, h.uc.Schedules.Location()), timeKeyboard(postID, kind, weekday))
}

func (h *Handler) onScheduleTime(ctx context.Context, msg *tgbotapi.Message, st domain.AwaitingScheduleTime) {
	clock, err := recurrence.ParseClock(msg.Text)
	if err != nil {
		h.reply(msg.Chat.ID, "Некорректное время. Используйте формат ЧЧ:ММ, например 09:00 или 21:30.", timeKeyboard(st.PostID, st.Kind, st.Weekday))
		return
	}
	h.scheduleRecurring(ctx, msg.Chat.ID, msg.From.ID, st.PostID, st.Kind, st.Weekday, &clock)
}

func (h *Handler) scheduleRecurring(ctx context.Context, chatID, userID, postID int64, kind domain.RecurrenceKind, weekday time.Weekday, at *recurrence.Clock) {
	res, err := h.uc.Schedules.ScheduleRecurring(ctx, userID, postID, kind, at, weekday)
	h.finishScheduling(ctx, chatID, userID, res, err)
}

func (h *Handler) onOnceTime(ctx context.Context, msg *tgbotapi.Message, st domain.AwaitingOnceTime) {
	chatID, userID := msg.Chat.ID, msg.From.ID
	loc := h.uc.Schedules.Location()
	at, err := h.uc.Schedules.ParseOnce(msg.Text)
	switch {
	case errors.Is(err, recurrence.ErrOnceInPast):
		h.reply(chatID, "Это время уже прошло. Укажите момент в будущем.\n\n"+buildOncePrompt(loc, h.now()), cancelKeyboard())
		return
	case err != nil:
		h.reply(chatID, "Не удалось разобрать дату.\n\n"+buildOncePrompt(loc, h.now()), cancelKeyboard())
		return
	}
	res, err := h.uc.Schedules.ScheduleOnce(ctx, userID, st.PostID, at)
	if errors.Is(err, recurrence.ErrOnceInPast) {
		h.reply(chatID, "Это время уже прошло. Укажите момент в будущем.", cancelKeyboard())
		return
	}
	h.finishScheduling(ctx, chatID, userID, res, err)
}

func (h *Handler) onCustomCron(ctx context.Context, msg *tgbotapi.Message, st domain.AwaitingCustomCron) {
	chatID, userID := msg.Chat.ID, msg.From.ID
	res, err := h.uc.Schedules.ScheduleCustom(ctx, userID, st.PostID, msg.Text)
	if errors.Is(err, recurrence.ErrInvalidExpression) {
		h.reply(chatID, "❌ Некорректное cron-выражение «"+strings.TrimSpace(msg.Text)+"».\n\n"+buildCronHelp(), cancelKeyboard())
		return
	}
	h.finishScheduling(ctx, chatID, userID, res, err)
}

func (h *Handler) finishScheduling(ctx context.Context, chatID, userID int64, res schedule.Scheduled, err error) {
	h.clearState(ctx, userID)
	if err != nil {
		h.replyError(chatID, "не удалось создать расписание", err)
		return
	}
	h.log.Info().
		Int64("user", userID).
		Int64("schedule", res.Schedule.ID).
		Str("cron", res.Schedule.CronExpr).
		Time("next_run_at", res.Schedule.NextRunAt).
		Msg("bot: расписание создано")
	h.reply(chatID, buildScheduledText(res.Description, res.Channel, res.Schedule.NextRunAt, h.uc.Schedules.Location()),
		markup(
			backRow("📅 Расписания поста", cmdID(ActionPostSchedules, res.Schedule.PostID)),
			backRow("⬅️ К посту", cmdID(ActionPost, res.Schedule.PostID)),
		))
}

func (h *Handler) showPostSchedules(ctx context.Context, chatID, userID, postID int64) {
	list, err := h.uc.Schedules.ListPostSchedules(ctx, userID, postID)
	if err != nil {
		h.replyError(chatID, "не удалось получить расписания", err)
		return
	}
	h.reply(chatID, buildSchedulesText(list, h.uc.Schedules.Location()), schedulesKeyboard(postID, list))
}

func (h *Handler) cancelSchedule(ctx context.Context, chatID, userID, scheduleID int64) {
	s, err := h.uc.Schedules.CancelSchedule(ctx, userID, scheduleID)
	if err != nil {
		h.replyError(chatID, "не удалось отменить расписание", err)
		return
	}
	h.reply(chatID, "🗑 Расписание отменено.", nil)
	h.showPostSchedules(ctx, chatID, userID, s.PostID)
}

// Администрирование.

func (h *Handler) showAdmin(ctx context.Context, chatID, userID int64) {
	if !h.uc.Admin.IsAdmin(userID) {
		h.reply(chatID, "⛔ Команда доступна только администраторам.", nil)
		return
	}
	h.clearState(ctx, userID)
	h.reply(chatID, "🛠 Панель администратора", adminKeyboard())
}

func (h *Handler) showStats(ctx context.Context, chatID, userID int64) {
	stats, err := h.uc.Admin.Stats(ctx, userID)
	if err != nil {
		h.replyError(chatID, "не удалось получить статистику", err)
		return
	}
	h.reply(chatID, buildStatsText(stats), markup(backRow("⬅️ Назад", cmd(ActionAdmin))))
}

func (h *Handler) showAdminChannels(ctx context.Context, chatID, userID int64) {
	list, err := h.uc.Admin.ListAllChannels(ctx, userID)
	if err != nil {
		h.replyError(chatID, "не удалось получить каналы", err)
		return
	}
	text := "📚 Все каналы:"
	if len(list) == 0 {
		text = "Каналов пока нет."
	}
	h.reply(chatID, text, adminChannelsKeyboard(list))
}

func (h *Handler) showAdminChannel(ctx context.Context, chatID, userID, channelID int64) {
	ch, err := h.uc.Admin.GetChannel(ctx, userID, channelID)
	if err != nil {
		h.replyError(chatID, "не удалось получить канал", err)
		return
	}
	h.reply(chatID, buildAdminChannelText(ch), adminChannelKeyboard(ch))
}

func (h *Handler) toggleBan(ctx context.Context, chatID, userID, channelID int64) {
	ch, err := h.uc.Admin.ToggleBan(ctx, userID, channelID)
	if err != nil {
		h.replyError(chatID, "не удалось изменить бан", err)
		return
	}
	h.log.Info().Int64("admin", userID).Int64("chat", ch.ChatID).Bool("banned", ch.IsBanned).Msg("bot: бан канала изменён")
	h.reply(chatID, buildAdminChannelText(ch), adminChannelKeyboard(ch))
}

func (h *Handler) toggleVIP(ctx context.Context, chatID, userID, channelID int64) {
	ch, err := h.uc.Admin.ToggleVIP(ctx, userID, channelID)
	if err != nil {
		h.replyError(chatID, "не удалось изменить VIP", err)
		return
	}
	h.log.Info().Int64("admin", userID).Int64("chat", ch.ChatID).Bool("vip", ch.IsVIP).Msg("bot: VIP канала изменён")
	h.reply(chatID, buildAdminChannelText(ch), adminChannelKeyboard(ch))
}

func (h *Handler) startBroadcast(ctx context.Context, chatID, userID int64) {
	if !h.uc.Admin.IsAdmin(userID) {
		h.reply(chatID, "⛔ Команда доступна только администраторам.", nil)
		return
	}
	h.setState(ctx, userID, domain.AwaitingBroadcast{})
	h.reply(chatID, "📢 Отправьте сообщение для рассылки. Оно будет скопировано во все каналы, кроме VIP и забаненных.", cancelKeyboard())
}

func (h *Handler) onBroadcastMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID, userID := msg.Chat.ID, msg.From.ID
	if !h.uc.Admin.IsAdmin(userID) {
		h.clearState(ctx, userID)
		return
	}
	h.setState(ctx, userID, domain.BroadcastDraft{FromChatID: chatID, MessageID: msg.MessageID})
	h.reply(chatID, "Отправить это сообщение во все каналы?", confirmKeyboard(cmd(ActionBroadcastConfirm), cmd(ActionCancel)))
}

func (h *Handler) confirmBroadcast(ctx context.Context, chatID, userID int64) {
	draft, ok := h.state(ctx, userID).(domain.BroadcastDraft)
	if !ok {
		h.reply(chatID, "Черновик рассылки не найден. Начните заново из панели администратора.", nil)
		return
	}
	job, err := h.uc.Broadcast.Enqueue(ctx, userID, draft.FromChatID, draft.MessageID)
	h.clearState(ctx, userID)
	if err != nil {
		h.replyError(chatID, "не удалось поставить рассылку в очередь", err)
		return
	}
	h.log.Info().Int64("admin", userID).Str("job", job.ID).Msg("bot: рассылка поставлена в очередь")
	h.reply(chatID, "📢 Рассылка поставлена в очередь. Отчёт придёт по завершении.", adminKeyboard())
}
