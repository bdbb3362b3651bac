package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrValidation означает некорректный ввод пользователя.
	ErrValidation = errors.New("некорректные данные")
	// ErrNotFound означает, что записи нет в хранилище.
	ErrNotFound = errors.New("запись не найдена")
	// ErrForbidden означает, что пользователь не владеет объектом.
	ErrForbidden = errors.New("нет доступа")
	// ErrChannelExists означает, что канал уже привязан.
	ErrChannelExists = errors.New("канал уже добавлен")
	// ErrAccessLost означает, что бот удалён из канала или лишён прав.
	ErrAccessLost = errors.New("бот потерял доступ к каналу")
	// ErrTransientDelivery объединяет прочие ошибки доставки.
	ErrTransientDelivery = errors.New("ошибка доставки")
	// ErrStore означает ошибку хранилища.
	ErrStore = errors.New("ошибка хранилища")
)

// DeliveryKind классифицирует ошибку отправки.
type DeliveryKind int

const (
	// DeliveryTransient: разовая ошибка, будущие отправки могут пройти.
	DeliveryTransient DeliveryKind = iota
	// DeliveryAccessLost: доступ к каналу утерян, дальнейшие отправки не пройдут.
	DeliveryAccessLost
)

func (k DeliveryKind) String() string {
	if k == DeliveryAccessLost {
		return "access_lost"
	}
	return "transient"
}

// DeliveryError хранит классифицированную ошибку транспорта.
type DeliveryError struct {
	Kind       DeliveryKind
	RetryAfter time.Duration
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать ошибку доставки с ErrAccessLost и ErrTransientDelivery.
func (e *DeliveryError) Is(target error) bool {
	switch target {
	case ErrAccessLost:
		return e.Kind == DeliveryAccessLost
	case ErrTransientDelivery:
		return e.Kind == DeliveryTransient
	}
	return false
}

// IsAccessLost сообщает, что ошибка означает потерю доступа к каналу.
func IsAccessLost(err error) bool {
	return errors.Is(err, ErrAccessLost)
}

var accessLostPhrases = []string{
	"bot was blocked",
	"chat not found",
	"bot is not a member",
	"not enough rights",
	"bot was kicked",
	"have no rights to send",
	"need administrator rights",
	"chat_write_forbidden",
}

// AsDeliveryError приводит ошибку транспорта к *DeliveryError. Неклассифицированная ошибка
// с признаками потери доступа в тексте считается DeliveryAccessLost, остальные временными.
func AsDeliveryError(err error) *DeliveryError {
	if err == nil {
		return nil
	}
	var delivery *DeliveryError
	if errors.As(err, &delivery) {
		return delivery
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range accessLostPhrases {
		if strings.Contains(msg, phrase) {
			return &DeliveryError{Kind: DeliveryAccessLost, Err: err}
		}
	}
	return &DeliveryError{Kind: DeliveryTransient, Err: err}
}
