package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecurrenceKind описывает вид повторяющегося расписания, выбираемый в меню.
type RecurrenceKind string

const (
	RecurrenceDaily        RecurrenceKind = "daily"
	RecurrenceWeekly       RecurrenceKind = "weekly"
	RecurrenceEveryTwoDays RecurrenceKind = "2days"
)

// SessionPhase задаёт имя фазы диалога.
type SessionPhase string

const (
	PhaseIdle                   SessionPhase = "idle"
	PhaseAwaitingChannelForward SessionPhase = "awaiting_channel_forward"
	PhaseComposingPost          SessionPhase = "composing_post"
	PhaseAwaitingScheduleTime   SessionPhase = "awaiting_schedule_time"
	PhaseAwaitingOnceTime       SessionPhase = "awaiting_once_time"
	PhaseAwaitingCustomCron     SessionPhase = "awaiting_custom_cron"
	PhaseAwaitingBroadcast      SessionPhase = "awaiting_broadcast"
	PhaseBroadcastDraft         SessionPhase = "broadcast_draft"
)

// SessionState описывает состояние диалога. Набор реализаций закрыт этим пакетом.
type SessionState interface {
	Phase() SessionPhase
	sessionState()
}

// Idle означает, что пользователь ничего не вводит.
type Idle struct{}

// AwaitingChannelForward: ждём пересланное из канала сообщение.
type AwaitingChannelForward struct{}

// ComposingPost: ждём текст или медиа поста. EditPostID == 0 означает создание.
type ComposingPost struct {
	ChannelID  int64 `json:"channel_id"`
	EditPostID int64 `json:"edit_post_id,omitempty"`
}

// AwaitingScheduleTime: ждём время ЧЧ:ММ для выбранного вида расписания.
type AwaitingScheduleTime struct {
	PostID  int64          `json:"post_id"`
	Kind    RecurrenceKind `json:"kind"`
	Weekday time.Weekday   `json:"weekday"`
}

// AwaitingOnceTime: ждём дату и время разовой публикации.
type AwaitingOnceTime struct {
	PostID int64 `json:"post_id"`
}

// AwaitingCustomCron: ждём cron-выражение.
type AwaitingCustomCron struct {
	PostID int64 `json:"post_id"`
}

// AwaitingBroadcast: администратор готовит рассылку.
type AwaitingBroadcast struct{}

// BroadcastDraft хранит сообщение рассылки до подтверждения.
type BroadcastDraft struct {
	FromChatID int64 `json:"from_chat_id"`
	MessageID  int   `json:"message_id"`
}

func (Idle) Phase() SessionPhase                   { return PhaseIdle }
func (AwaitingChannelForward) Phase() SessionPhase { return PhaseAwaitingChannelForward }
func (ComposingPost) Phase() SessionPhase          { return PhaseComposingPost }
func (AwaitingScheduleTime) Phase() SessionPhase   { return PhaseAwaitingScheduleTime }
func (AwaitingOnceTime) Phase() SessionPhase       { return PhaseAwaitingOnceTime }
func (AwaitingCustomCron) Phase() SessionPhase     { return PhaseAwaitingCustomCron }
func (AwaitingBroadcast) Phase() SessionPhase      { return PhaseAwaitingBroadcast }
func (BroadcastDraft) Phase() SessionPhase         { return PhaseBroadcastDraft }

func (Idle) sessionState()                   {}
func (AwaitingChannelForward) sessionState() {}
func (ComposingPost) sessionState()          {}
func (AwaitingScheduleTime) sessionState()   {}
func (AwaitingOnceTime) sessionState()       {}
func (AwaitingCustomCron) sessionState()     {}
func (AwaitingBroadcast) sessionState()      {}
func (BroadcastDraft) sessionState()         {}

type sessionEnvelope struct {
	Phase SessionPhase    `json:"phase"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeSession сериализует состояние для внешнего хранилища.
func EncodeSession(state SessionState) ([]byte, error) {
	if state == nil {
		state = Idle{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return json.Marshal(sessionEnvelope{Phase: state.Phase(), Data: data})
}

// DecodeSession восстанавливает состояние из EncodeSession.
func DecodeSession(raw []byte) (SessionState, error) {
	var env sessionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	switch env.Phase {
	case PhaseIdle, "":
		return Idle{}, nil
	case PhaseAwaitingChannelForward:
		return AwaitingChannelForward{}, nil
	case PhaseAwaitingBroadcast:
		return AwaitingBroadcast{}, nil
	case PhaseComposingPost:
		return decodePayload[ComposingPost](env)
	case PhaseAwaitingScheduleTime:
		return decodePayload[AwaitingScheduleTime](env)
	case PhaseAwaitingOnceTime:
		return decodePayload[AwaitingOnceTime](env)
	case PhaseAwaitingCustomCron:
		return decodePayload[AwaitingCustomCron](env)
	case PhaseBroadcastDraft:
		return decodePayload[BroadcastDraft](env)
	}
	return nil, fmt.Errorf("неизвестная фаза сессии %q", env.Phase)
}

func decodePayload[T SessionState](env sessionEnvelope) (SessionState, error) {
	var state T
	if err := json.Unmarshal(env.Data, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", env.Phase, err)
	}
	return state, nil
}
