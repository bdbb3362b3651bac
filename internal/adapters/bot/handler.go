package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-channel-scheduler/internal/adapters/telegram"
	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
	"tg-channel-scheduler/internal/usecase/admin"
	"tg-channel-scheduler/internal/usecase/broadcast"
	"tg-channel-scheduler/internal/usecase/channels"
	"tg-channel-scheduler/internal/usecase/posts"
	"tg-channel-scheduler/internal/usecase/schedule"
)

// Usecases содержит сервисы, которыми пользуется обработчик.
type Usecases struct {
	Channels  *channels.Service
	Posts     *posts.Service
	Schedules *schedule.Service
	Admin     *admin.Service
	Broadcast *broadcast.Service
}

// Handler обслуживает апдейты бота.
type Handler struct {
	bot      telegram.BotAPI
	log      zerolog.Logger
	sessions domain.SessionStore
	uc       Usecases
	now      func() time.Time
}

// NewHandler создаёт обработчик.
func NewHandler(bot telegram.BotAPI, log zerolog.Logger, sessions domain.SessionStore, uc Usecases) *Handler {
	return &Handler{bot: bot, log: log, sessions: sessions, uc: uc, now: time.Now}
}

// HandleUpdate обрабатывает входящий апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		h.handleMessage(ctx, upd.Message)
	} else if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}
	chatID, userID := msg.Chat.ID, msg.From.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.showMenu(ctx, chatID, userID)
		case "help":
			h.reply(chatID, buildHelpMessage(h.uc.Schedules.Location()), mainKeyboard(h.uc.Admin.IsAdmin(userID)))
		case "cancel":
			h.cancel(ctx, chatID, userID)
		case "channels":
			h.showChannels(ctx, chatID, userID)
		case "admin":
			h.showAdmin(ctx, chatID, userID)
		default:
			h.reply(chatID, "Неизвестная команда. Используйте /help", nil)
		}
		return
	}

	switch st := h.state(ctx, userID).(type) {
	case domain.AwaitingChannelForward:
		h.onChannelForward(ctx, msg)
	case domain.ComposingPost:
		h.onPostContent(ctx, msg, st)
	case domain.AwaitingScheduleTime:
		h.onScheduleTime(ctx, msg, st)
	case domain.AwaitingOnceTime:
		h.onOnceTime(ctx, msg, st)
	case domain.AwaitingCustomCron:
		h.onCustomCron(ctx, msg, st)
	case domain.AwaitingBroadcast:
		h.onBroadcastMessage(ctx, msg)
	case domain.BroadcastDraft:
		h.reply(chatID, "Подтвердите или отмените рассылку кнопками выше.", nil)
	default:
		if msg.ForwardFromChat != nil {
			h.onChannelForward(ctx, msg)
			return
		}
		h.reply(chatID, "Выберите действие в меню или отправьте /help", mainKeyboard(h.uc.Admin.IsAdmin(userID)))
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	defer h.answerCallback(cb)
	if cb.Message == nil || cb.Message.Chat == nil || cb.From == nil {
		return
	}
	chatID, userID := cb.Message.Chat.ID, cb.From.ID

	c, err := ParseCommand(cb.Data)
	if err != nil {
		h.log.Warn().Err(err).Int64("user", userID).Msg("bot: неизвестные данные кнопки")
		h.reply(chatID, "Кнопка устарела. Откройте меню заново: /start", nil)
		return
	}

	switch c.Action {
	case ActionMenu:
		h.showMenu(ctx, chatID, userID)
	case ActionHelp:
		h.reply(chatID, buildHelpMessage(h.uc.Schedules.Location()), mainKeyboard(h.uc.Admin.IsAdmin(userID)))
	case ActionCancel:
		h.cancel(ctx, chatID, userID)
	case ActionAddChannel:
		h.setState(ctx, userID, domain.AwaitingChannelForward{})
		h.reply(chatID, "📨 Добавьте бота администратором канала с правом публикации, затем перешлите сюда любое сообщение из этого канала.", cancelKeyboard())
	case ActionMyChannels:
		h.showChannels(ctx, chatID, userID)
	case ActionChannel:
		h.showChannel(ctx, chatID, userID, c.ID)
	case ActionDeleteChannel:
		h.askDeleteChannel(ctx, chatID, userID, c.ID)
	case ActionConfirmDeleteChannel:
		h.deleteChannel(ctx, chatID, userID, c.ID)
	case ActionNewPost:
		h.startNewPost(ctx, chatID, userID, c.ID)
	case ActionPost:
		h.showPost(ctx, chatID, userID, c.ID)
	case ActionEditPost:
		h.startEditPost(ctx, chatID, userID, c.ID)
	case ActionDeletePost:
		h.askDeletePost(ctx, chatID, userID, c.ID)
	case ActionConfirmDeletePost:
		h.deletePost(ctx, chatID, userID, c.ID)
	case ActionScheduleMenu:
		h.showScheduleMenu(ctx, chatID, userID, c.ID)
	case ActionScheduleKind:
		h.onScheduleKind(ctx, chatID, userID, c)
	case ActionScheduleWeekday:
		h.askScheduleTime(ctx, chatID, userID, c.ID, domain.RecurrenceWeekly, c.Weekday)
	case ActionScheduleNoon:
		h.scheduleRecurring(ctx, chatID, userID, c.ID, c.Kind, c.Weekday, nil)
	case ActionScheduleOnce:
		h.setState(ctx, userID, domain.AwaitingOnceTime{PostID: c.ID})
		h.reply(chatID, buildOncePrompt(h.uc.Schedules.Location(), h.now()), cancelKeyboard())
	case ActionScheduleCustom:
		h.setState(ctx, userID, domain.AwaitingCustomCron{PostID: c.ID})
		h.reply(chatID, buildCronHelp(), cancelKeyboard())
	case ActionPostSchedules:
		h.showPostSchedules(ctx, chatID, userID, c.ID)
	case ActionCancelSchedule:
		h.cancelSchedule(ctx, chatID, userID, c.ID)
	case ActionAdmin:
		h.showAdmin(ctx, chatID, userID)
	case ActionAdminStats:
		h.showStats(ctx, chatID, userID)
	case ActionAdminChannels:
		h.showAdminChannels(ctx, chatID, userID)
	case ActionAdminChannel:
		h.showAdminChannel(ctx, chatID, userID, c.ID)
	case ActionToggleBan:
		h.toggleBan(ctx, chatID, userID, c.ID)
	case ActionToggleVIP:
		h.toggleVIP(ctx, chatID, userID, c.ID)
	case ActionBroadcast:
		h.startBroadcast(ctx, chatID, userID)
	case ActionBroadcastConfirm:
		h.confirmBroadcast(ctx, chatID, userID)
	}
}

func (h *Handler) showMenu(ctx context.Context, chatID, userID int64) {
	h.clearState(ctx, userID)
	h.reply(chatID, buildStartMessage(), mainKeyboard(h.uc.Admin.IsAdmin(userID)))
}

func (h *Handler) cancel(ctx context.Context, chatID, userID int64) {
	h.clearState(ctx, userID)
	h.reply(chatID, "Действие отменено.", mainKeyboard(h.uc.Admin.IsAdmin(userID)))
}

func (h *Handler) state(ctx context.Context, userID int64) domain.SessionState {
	state, err := h.sessions.Get(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user", userID).Msg("bot: не удалось прочитать сессию")
		return domain.Idle{}
	}
	return state
}

func (h *Handler) setState(ctx context.Context, userID int64, state domain.SessionState) {
	if err := h.sessions.Set(ctx, userID, state); err != nil {
		h.log.Error().Err(err).Int64("user", userID).Str("phase", string(state.Phase())).Msg("bot: не удалось сохранить сессию")
	}
}

func (h *Handler) clearState(ctx context.Context, userID int64) {
	if err := h.sessions.Clear(ctx, userID); err != nil {
		h.log.Error().Err(err).Int64("user", userID).Msg("bot: не удалось очистить сессию")
	}
}

// replyError отвечает пользователю по доменной ошибке. Непредвиденные ошибки логируются.
func (h *Handler) replyError(chatID int64, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		h.reply(chatID, "⛔ Нет доступа.", nil)
	case errors.Is(err, domain.ErrNotFound):
		h.reply(chatID, "Не найдено. Возможно, запись уже удалена.", nil)
	case errors.Is(err, domain.ErrValidation):
		h.reply(chatID, "Некорректные данные. Попробуйте ещё раз или отправьте /cancel.", nil)
	default:
		h.log.Error().Err(err).Int64("chat", chatID).Msgf("bot: %s", op)
		h.reply(chatID, "Произошла ошибка, попробуйте позже.", nil)
	}
}

func (h *Handler) answerCallback(cb *tgbotapi.CallbackQuery) {
	start := time.Now()
	_, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, ""))
	target := ""
	if cb.From != nil {
		target = strconv.FormatInt(cb.From.ID, 10)
	}
	metrics.ObserveNetworkRequest("telegram_bot", "answer_callback", target, start, err)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось ответить на callback")
	}
}

func (h *Handler) reply(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	parts := telegram.SplitMessage(text)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 && keyboard != nil {
			msg.ReplyMarkup = keyboard
		}
		start := time.Now()
		_, err := h.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			h.log.Error().Err(err).Msg("не удалось отправить сообщение")
			return
		}
	}
}

// extractContent собирает содержимое поста из сообщения пользователя.
func extractContent(msg *tgbotapi.Message) domain.PostContent {
	content := domain.PostContent{Text: strings.TrimSpace(msg.Text)}
	if caption := strings.TrimSpace(msg.Caption); caption != "" {
		content.Text = caption
	}
	switch {
	case len(msg.Photo) > 0:
		content.Media = domain.Media{Kind: domain.MediaPhoto, FileID: msg.Photo[len(msg.Photo)-1].FileID}
	case msg.Animation != nil:
		content.Media = domain.Media{Kind: domain.MediaAnimation, FileID: msg.Animation.FileID}
	case msg.Video != nil:
		content.Media = domain.Media{Kind: domain.MediaVideo, FileID: msg.Video.FileID}
	case msg.Document != nil:
		content.Media = domain.Media{Kind: domain.MediaDocument, FileID: msg.Document.FileID}
	case msg.Audio != nil:
		content.Media = domain.Media{Kind: domain.MediaAudio, FileID: msg.Audio.FileID}
	case msg.Voice != nil:
		content.Media = domain.Media{Kind: domain.MediaVoice, FileID: msg.Voice.FileID}
	case msg.VideoNote != nil:
		content.Media = domain.Media{Kind: domain.MediaVideoNote, FileID: msg.VideoNote.FileID}
	case msg.Sticker != nil:
		content.Media = domain.Media{Kind: domain.MediaSticker, FileID: msg.Sticker.FileID}
	}
	return content
}
