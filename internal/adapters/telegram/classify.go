package telegram

import (
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-channel-scheduler/internal/domain"
)

// Classify превращает ошибку Bot API в *domain.DeliveryError.
// 403 означает потерю доступа, 429 временную ошибку с паузой retry_after,
// остальное решается по тексту ошибки.
func Classify(err error) *domain.DeliveryError {
	if err == nil {
		return nil
	}
	var delivery *domain.DeliveryError
	if errors.As(err, &delivery) {
		return delivery
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 403:
			return &domain.DeliveryError{Kind: domain.DeliveryAccessLost, Err: err}
		case 429:
			return &domain.DeliveryError{
				Kind:       domain.DeliveryTransient,
				RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
				Err:        err,
			}
		}
	}
	return domain.AsDeliveryError(err)
}
