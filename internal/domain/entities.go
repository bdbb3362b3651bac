package domain

import (
	"strings"
	"time"
)

// MediaKind описывает тип вложения поста.
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaDocument  MediaKind = "document"
	MediaAudio     MediaKind = "audio"
	MediaVoice     MediaKind = "voice"
	MediaVideoNote MediaKind = "video_note"
	MediaSticker   MediaKind = "sticker"
	MediaAnimation MediaKind = "animation"
)

// Captionless сообщает, что Telegram не принимает подпись для этого типа вложения.
func (k MediaKind) Captionless() bool {
	switch k {
	case MediaVoice, MediaVideoNote, MediaSticker:
		return true
	}
	return false
}

// Media ссылается на файл, уже загруженный в Telegram.
type Media struct {
	Kind   MediaKind
	FileID string
}

// IsZero сообщает, что вложения нет.
func (m Media) IsZero() bool {
	return strings.TrimSpace(m.FileID) == ""
}

// PostContent описывает содержимое поста, которое отправляется в канал.
type PostContent struct {
	Text  string
	Media Media
}

// IsEmpty возвращает true, если в посте нет ни текста, ни вложения.
func (c PostContent) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == "" && c.Media.IsZero()
}

// Channel описывает канал, в котором бот является администратором.
type Channel struct {
	ID        int64
	ChatID    int64
	Title     string
	OwnerID   int64
	IsVIP     bool
	IsBanned  bool
	CreatedAt time.Time
}

// DisplayName возвращает название канала для сообщений пользователю.
func (c Channel) DisplayName() string {
	title := strings.TrimSpace(strings.ReplaceAll(c.Title, "@", ""))
	if title == "" {
		return "Канал без названия"
	}
	runes := []rune(title)
	if len(runes) > 30 {
		return string(runes[:30]) + "..."
	}
	return title
}

// Post представляет шаблон поста пользователя.
type Post struct {
	ID        int64
	UserID    int64
	ChannelID int64
	Content   PostContent
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Preview возвращает короткое описание поста для списков.
func (p Post) Preview() string {
	text := strings.TrimSpace(p.Content.Text)
	if text == "" {
		if !p.Content.Media.IsZero() {
			return "[" + string(p.Content.Media.Kind) + "]"
		}
		return "[пусто]"
	}
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return text
}

// ScheduleKind различает повторяющиеся и разовые публикации.
type ScheduleKind string

const (
	// ScheduleRecurring публикует по cron-выражению.
	ScheduleRecurring ScheduleKind = "recurring"
	// ScheduleOnce публикует один раз в заданный момент и после выполнения удаляется.
	ScheduleOnce ScheduleKind = "once"
)

// Schedule описывает одну запись расписания публикации.
type Schedule struct {
	ID            int64
	PostID        int64
	ChannelChatID int64
	UserID        int64
	Kind          ScheduleKind
	CronExpr      string
	NextRunAt     time.Time
	IsActive      bool
	CreatedAt     time.Time
}

// Recurring сообщает, нужно ли пересоздавать запись после выполнения.
func (s Schedule) Recurring() bool {
	return s.Kind != ScheduleOnce && strings.TrimSpace(s.CronExpr) != ""
}

// NewSchedule содержит данные для вставки записи расписания.
type NewSchedule struct {
	PostID        int64
	ChannelChatID int64
	UserID        int64
	Kind          ScheduleKind
	CronExpr      string
	NextRunAt     time.Time
}

// FromSchedule готовит вставку следующего запуска с теми же параметрами.
func FromSchedule(s Schedule, next time.Time) NewSchedule {
	return NewSchedule{
		PostID:        s.PostID,
		ChannelChatID: s.ChannelChatID,
		UserID:        s.UserID,
		Kind:          s.Kind,
		CronExpr:      s.CronExpr,
		NextRunAt:     next.UTC(),
	}
}

// Stats содержит агрегированную статистику для администратора.
type Stats struct {
	TotalChannels   int
	VIPChannels     int
	BannedChannels  int
	TotalPosts      int
	ActiveSchedules int
}
