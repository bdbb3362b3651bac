package domain

import (
	"context"
	"time"
)

// ChannelRepo управляет каналами.
type ChannelRepo interface {
	CreateChannel(ctx context.Context, ch Channel) (Channel, error)
	GetChannel(ctx context.Context, id int64) (Channel, error)
	GetChannelByChatID(ctx context.Context, chatID int64) (Channel, error)
	ListOwnerChannels(ctx context.Context, ownerID int64) ([]Channel, error)
	ListAllChannels(ctx context.Context) ([]Channel, error)
	ListBroadcastTargets(ctx context.Context) ([]Channel, error)
	SetBanned(ctx context.Context, id int64, banned bool) error
	SetVIP(ctx context.Context, id int64, vip bool) error
	DeleteChannel(ctx context.Context, id int64) error
}

// PostRepo управляет шаблонами постов.
type PostRepo interface {
	CreatePost(ctx context.Context, post Post) (Post, error)
	GetPost(ctx context.Context, id int64) (Post, error)
	UpdatePostContent(ctx context.Context, id int64, content PostContent) error
	DeletePost(ctx context.Context, id int64) error
	ListChannelPosts(ctx context.Context, channelID int64) ([]Post, error)
}

// ScheduleStore хранит записи расписания.
type ScheduleStore interface {
	ListDueSchedules(ctx context.Context, now time.Time) ([]Schedule, error)
	// ClaimSchedule деактивирует активную запись и возвращает true, если захват удался.
	// Повторный захват уже неактивной записи возвращает false без ошибки.
	ClaimSchedule(ctx context.Context, id int64) (bool, error)
	DeleteSchedule(ctx context.Context, id int64) error
	AddSchedule(ctx context.Context, s NewSchedule) (Schedule, error)
	DeactivateChannelSchedules(ctx context.Context, chatID int64) (int64, error)
}

// ScheduleRepo расширяет ScheduleStore для пользовательского интерфейса.
type ScheduleRepo interface {
	ScheduleStore
	GetSchedule(ctx context.Context, id int64) (Schedule, error)
	ListPostSchedules(ctx context.Context, postID int64) ([]Schedule, error)
}

// StatsRepo возвращает агрегаты для администратора.
type StatsRepo interface {
	Stats(ctx context.Context) (Stats, error)
}

// Transport доставляет посты в каналы.
type Transport interface {
	// Deliver возвращает nil или *DeliveryError.
	Deliver(ctx context.Context, chatID int64, content PostContent) error
}

// Notifier отправляет короткие уведомления пользователю. Ошибки только логируются.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string)
}

// ChatMember описывает права бота в чате.
type ChatMember struct {
	Status          string
	CanPostMessages bool
}

// IsAdministrator сообщает, может ли бот публиковать в канале.
func (m ChatMember) IsAdministrator() bool {
	if m.Status == "creator" {
		return true
	}
	return m.Status == "administrator" && m.CanPostMessages
}

// ChatInspector проверяет права бота в канале.
type ChatInspector interface {
	BotMember(ctx context.Context, chatID int64) (ChatMember, error)
}

// SessionStore хранит состояние диалога пользователя с истечением.
type SessionStore interface {
	Get(ctx context.Context, userID int64) (SessionState, error)
	Set(ctx context.Context, userID int64, state SessionState) error
	Clear(ctx context.Context, userID int64) error
}
