package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
)

// Transport доставляет посты в каналы через Bot API.
type Transport struct {
	bot BotAPI
	log zerolog.Logger
}

var _ domain.Transport = (*Transport)(nil)

// NewTransport создаёт транспорт.
func NewTransport(bot BotAPI, log zerolog.Logger) *Transport {
	return &Transport{bot: bot, log: log}
}

// Deliver отправляет пост в канал. Тип вложения выбирает метод Bot API,
// неизвестные типы отправляются документом. Если вложение ушло, а текст отдельным
// сообщением нет, публикация считается состоявшейся: ошибка текста только логируется.
func (t *Transport) Deliver(ctx context.Context, chatID int64, content domain.PostContent) error {
	if content.IsEmpty() {
		return &domain.DeliveryError{Kind: domain.DeliveryTransient, Err: fmt.Errorf("%w: пост без текста и вложения", domain.ErrValidation)}
	}
	if err := ctx.Err(); err != nil {
		return &domain.DeliveryError{Kind: domain.DeliveryTransient, Err: err}
	}
	if content.Media.IsZero() {
		return t.sendText(chatID, content.Text)
	}

	caption := content.Text
	var followUp string
	if content.Media.Kind.Captionless() || len([]rune(caption)) > CaptionLimit {
		followUp, caption = caption, ""
	}
	msg := mediaMessage(chatID, content.Media, caption)
	if err := t.send(chatID, "send_"+mediaOperation(content.Media.Kind), msg); err != nil {
		return err
	}
	if followUp == "" {
		return nil
	}
	if err := t.sendText(chatID, followUp); err != nil {
		t.log.Warn().Err(err).Int64("chat", chatID).Str("media", string(content.Media.Kind)).
			Msg("telegram: вложение отправлено, текст поста не доставлен")
	}
	return nil
}

// Copy копирует сообщение из чата администратора в канал.
func (t *Transport) Copy(ctx context.Context, chatID, fromChatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return &domain.DeliveryError{Kind: domain.DeliveryTransient, Err: err}
	}
	start := time.Now()
	_, err := t.bot.Request(tgbotapi.NewCopyMessage(chatID, fromChatID, messageID))
	metrics.ObserveNetworkRequest("telegram_bot", "copy_message", strconv.FormatInt(chatID, 10), start, err)
	if err != nil {
		classified := Classify(err)
		metrics.IncSendError(classified.Kind.String())
		return classified
	}
	return nil
}

func (t *Transport) sendText(chatID int64, text string) error {
	for _, part := range SplitMessage(text) {
		if err := t.send(chatID, "send_message", tgbotapi.NewMessage(chatID, part)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) send(chatID int64, operation string, msg tgbotapi.Chattable) error {
	start := time.Now()
	_, err := t.bot.Send(msg)
	metrics.ObserveNetworkRequest("telegram_bot", operation, strconv.FormatInt(chatID, 10), start, err)
	if err != nil {
		classified := Classify(err)
		metrics.IncSendError(classified.Kind.String())
		return classified
	}
	return nil
}

func mediaOperation(kind domain.MediaKind) string {
	switch kind {
	case domain.MediaPhoto, domain.MediaVideo, domain.MediaAudio, domain.MediaVoice,
		domain.MediaVideoNote, domain.MediaSticker, domain.MediaAnimation:
		return string(kind)
	}
	return string(domain.MediaDocument)
}

func mediaMessage(chatID int64, media domain.Media, caption string) tgbotapi.Chattable {
	file := tgbotapi.FileID(media.FileID)
	switch media.Kind {
	case domain.MediaPhoto:
		msg := tgbotapi.NewPhoto(chatID, file)
		msg.Caption = caption
		return msg
	case domain.MediaVideo:
		msg := tgbotapi.NewVideo(chatID, file)
		msg.Caption = caption
		return msg
	case domain.MediaAudio:
		msg := tgbotapi.NewAudio(chatID, file)
		msg.Caption = caption
		return msg
	case domain.MediaAnimation:
		msg := tgbotapi.NewAnimation(chatID, file)
		msg.Caption = caption
		return msg
	case domain.MediaVoice:
		return tgbotapi.NewVoice(chatID, file)
	case domain.MediaVideoNote:
		return tgbotapi.NewVideoNote(chatID, 0, file)
	case domain.MediaSticker:
		return tgbotapi.NewSticker(chatID, file)
	}
	msg := tgbotapi.NewDocument(chatID, file)
	msg.Caption = caption
	return msg
}
