package telegram

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
)

// Inspector проверяет права бота в каналах.
type Inspector struct {
	bot   BotAPI
	botID int64
}

var _ domain.ChatInspector = (*Inspector)(nil)

// NewInspector создаёт проверку прав для бота botID.
func NewInspector(bot BotAPI, botID int64) *Inspector {
	return &Inspector{bot: bot, botID: botID}
}

// BotMember возвращает статус бота в чате.
func (i *Inspector) BotMember(ctx context.Context, chatID int64) (domain.ChatMember, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChatMember{}, err
	}
	start := time.Now()
	member, err := i.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: i.botID},
	})
	metrics.ObserveNetworkRequest("telegram_bot", "get_chat_member", strconv.FormatInt(chatID, 10), start, err)
	if err != nil {
		return domain.ChatMember{}, Classify(err)
	}
	return domain.ChatMember{Status: member.Status, CanPostMessages: member.CanPostMessages}, nil
}
