package telegram

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
)

// Notifier отправляет пользователю служебные уведомления.
type Notifier struct {
	bot BotAPI
	log zerolog.Logger
}

var _ domain.Notifier = (*Notifier)(nil)

// NewNotifier создаёт отправителя уведомлений.
func NewNotifier(bot BotAPI, log zerolog.Logger) *Notifier {
	return &Notifier{bot: bot, log: log}
}

// Notify отправляет сообщение в личный чат пользователя. Ошибки только логируются.
func (n *Notifier) Notify(ctx context.Context, userID int64, text string) {
	for _, part := range SplitMessage(text) {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		_, err := n.bot.Send(tgbotapi.NewMessage(userID, part))
		metrics.ObserveNetworkRequest("telegram_bot", "notify", strconv.FormatInt(userID, 10), start, err)
		if err != nil {
			n.log.Warn().Err(err).Int64("user", userID).Msg("notifier: не удалось отправить уведомление")
			return
		}
	}
}
