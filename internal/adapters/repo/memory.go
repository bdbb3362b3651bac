package repo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tg-channel-scheduler/internal/domain"
)

// Memory хранит данные в памяти процесса. Используется без PG_DSN в dev-режиме и в тестах.
type Memory struct {
	mu        sync.Mutex
	now       func() time.Time
	seq       int64
	channels  map[int64]domain.Channel
	posts     map[int64]domain.Post
	schedules map[int64]domain.Schedule
}

var (
	_ domain.ChannelRepo  = (*Memory)(nil)
	_ domain.PostRepo     = (*Memory)(nil)
	_ domain.ScheduleRepo = (*Memory)(nil)
	_ domain.StatsRepo    = (*Memory)(nil)
)

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{
		now:       time.Now,
		channels:  make(map[int64]domain.Channel),
		posts:     make(map[int64]domain.Post),
		schedules: make(map[int64]domain.Schedule),
	}
}

func (m *Memory) nextID() int64 {
	m.seq++
	return m.seq
}

// CreateChannel сохраняет канал. Повторный chat_id возвращает domain.ErrChannelExists.
func (m *Memory) CreateChannel(_ context.Context, ch domain.Channel) (domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.channels {
		if existing.ChatID == ch.ChatID {
			return domain.Channel{}, fmt.Errorf("создание канала: %w", domain.ErrChannelExists)
		}
	}
	ch.ID = m.nextID()
	ch.IsBanned, ch.IsVIP = false, false
	ch.CreatedAt = m.now().UTC()
	m.channels[ch.ID] = ch
	return ch, nil
}

// GetChannel возвращает канал по ID.
func (m *Memory) GetChannel(_ context.Context, id int64) (domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok {
		return domain.Channel{}, fmt.Errorf("получение канала: %w", domain.ErrNotFound)
	}
	return ch, nil
}

// GetChannelByChatID возвращает канал по chat id.
func (m *Memory) GetChannelByChatID(_ context.Context, chatID int64) (domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.channels {
		if ch.ChatID == chatID {
			return ch, nil
		}
	}
	return domain.Channel{}, fmt.Errorf("получение канала: %w", domain.ErrNotFound)
}

// ListOwnerChannels возвращает каналы пользователя.
func (m *Memory) ListOwnerChannels(_ context.Context, ownerID int64) ([]domain.Channel, error) {
	return m.filterChannels(func(ch domain.Channel) bool { return ch.OwnerID == ownerID }), nil
}

// ListAllChannels возвращает все каналы.
func (m *Memory) ListAllChannels(_ context.Context) ([]domain.Channel, error) {
	return m.filterChannels(func(domain.Channel) bool { return true }), nil
}

// ListBroadcastTargets возвращает каналы без VIP и бана.
func (m *Memory) ListBroadcastTargets(_ context.Context) ([]domain.Channel, error) {
	return m.filterChannels(func(ch domain.Channel) bool { return !ch.IsVIP && !ch.IsBanned }), nil
}

func (m *Memory) filterChannels(keep func(domain.Channel) bool) []domain.Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []domain.Channel
	for _, ch := range m.channels {
		if keep(ch) {
			list = append(list, ch)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// SetBanned меняет флаг бана канала.
func (m *Memory) SetBanned(_ context.Context, id int64, banned bool) error {
	return m.updateChannel(id, func(ch *domain.Channel) { ch.IsBanned = banned })
}

// SetVIP меняет VIP-флаг канала.
func (m *Memory) SetVIP(_ context.Context, id int64, vip bool) error {
	return m.updateChannel(id, func(ch *domain.Channel) { ch.IsVIP = vip })
}

func (m *Memory) updateChannel(id int64, apply func(*domain.Channel)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok {
		return fmt.Errorf("обновление канала: %w", domain.ErrNotFound)
	}
	apply(&ch)
	m.channels[id] = ch
	return nil
}

// DeleteChannel удаляет канал вместе с постами.
func (m *Memory) DeleteChannel(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[id]; !ok {
		return fmt.Errorf("удаление канала: %w", domain.ErrNotFound)
	}
	delete(m.channels, id)
	for postID, post := range m.posts {
		if post.ChannelID == id {
			delete(m.posts, postID)
		}
	}
	return nil
}

// CreatePost сохраняет пост.
func (m *Memory) CreatePost(_ context.Context, post domain.Post) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[post.ChannelID]; !ok {
		return domain.Post{}, fmt.Errorf("создание поста: %w", domain.ErrNotFound)
	}
	if post.Content.IsEmpty() {
		return domain.Post{}, fmt.Errorf("создание поста: %w", domain.ErrStore)
	}
	post.ID = m.nextID()
	post.CreatedAt = m.now().UTC()
	post.UpdatedAt = post.CreatedAt
	m.posts[post.ID] = post
	return post, nil
}

// GetPost возвращает пост по ID.
func (m *Memory) GetPost(_ context.Context, id int64) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok {
		return domain.Post{}, fmt.Errorf("получение поста: %w", domain.ErrNotFound)
	}
	return post, nil
}

// UpdatePostContent заменяет содержимое поста.
func (m *Memory) UpdatePostContent(_ context.Context, id int64, content domain.PostContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok {
		return fmt.Errorf("обновление поста: %w", domain.ErrNotFound)
	}
	post.Content = content
	post.UpdatedAt = m.now().UTC()
	m.posts[id] = post
	return nil
}

// DeletePost удаляет пост.
func (m *Memory) DeletePost(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return fmt.Errorf("удаление поста: %w", domain.ErrNotFound)
	}
	delete(m.posts, id)
	return nil
}

// ListChannelPosts возвращает посты канала в порядке создания.
func (m *Memory) ListChannelPosts(_ context.Context, channelID int64) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []domain.Post
	for _, post := range m.posts {
		if post.ChannelID == channelID {
			list = append(list, post)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// ListDueSchedules возвращает активные расписания с next_run_at <= now.
func (m *Memory) ListDueSchedules(_ context.Context, now time.Time) ([]domain.Schedule, error) {
	return m.filterSchedules(func(s domain.Schedule) bool {
		return s.IsActive && !s.NextRunAt.After(now)
	}), nil
}

// ListPostSchedules возвращает активные расписания поста.
func (m *Memory) ListPostSchedules(_ context.Context, postID int64) ([]domain.Schedule, error) {
	return m.filterSchedules(func(s domain.Schedule) bool {
		return s.IsActive && s.PostID == postID
	}), nil
}

func (m *Memory) filterSchedules(keep func(domain.Schedule) bool) []domain.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []domain.Schedule
	for _, s := range m.schedules {
		if keep(s) {
			list = append(list, s)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].NextRunAt.Equal(list[j].NextRunAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].NextRunAt.Before(list[j].NextRunAt)
	})
	return list
}

// GetSchedule возвращает расписание по ID.
func (m *Memory) GetSchedule(_ context.Context, id int64) (domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return domain.Schedule{}, fmt.Errorf("получение расписания: %w", domain.ErrNotFound)
	}
	return s, nil
}

// ClaimSchedule выключает активную запись. Повторный захват возвращает false.
func (m *Memory) ClaimSchedule(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok || !s.IsActive {
		return false, nil
	}
	s.IsActive = false
	m.schedules[id] = s
	return true, nil
}

// DeleteSchedule удаляет запись. Отсутствие записи не считается ошибкой.
func (m *Memory) DeleteSchedule(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedules, id)
	return nil
}

// AddSchedule вставляет активную запись.
func (m *Memory) AddSchedule(_ context.Context, s domain.NewSchedule) (domain.Schedule, error) {
	if s.NextRunAt.IsZero() {
		return domain.Schedule{}, fmt.Errorf("создание расписания: %w: не задано время запуска", domain.ErrValidation)
	}
	kind := s.Kind
	if kind == "" {
		kind = domain.ScheduleRecurring
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := domain.Schedule{
		ID:            m.nextID(),
		PostID:        s.PostID,
		ChannelChatID: s.ChannelChatID,
		UserID:        s.UserID,
		Kind:          kind,
		CronExpr:      strings.TrimSpace(s.CronExpr),
		NextRunAt:     s.NextRunAt.UTC(),
		IsActive:      true,
		CreatedAt:     m.now().UTC(),
	}
	m.schedules[created.ID] = created
	return created, nil
}

// DeactivateChannelSchedules выключает все активные расписания канала.
func (m *Memory) DeactivateChannelSchedules(_ context.Context, chatID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.schedules {
		if s.ChannelChatID == chatID && s.IsActive {
			s.IsActive = false
			m.schedules[id] = s
			n++
		}
	}
	return n, nil
}

// Stats считает агрегаты.
func (m *Memory) Stats(_ context.Context) (domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := domain.Stats{TotalChannels: len(m.channels), TotalPosts: len(m.posts)}
	for _, ch := range m.channels {
		if ch.IsVIP {
			stats.VIPChannels++
		}
		if ch.IsBanned {
			stats.BannedChannels++
		}
	}
	for _, s := range m.schedules {
		if s.IsActive {
			stats.ActiveSchedules++
		}
	}
	return stats, nil
}
