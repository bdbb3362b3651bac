package channels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tg-channel-scheduler/internal/domain"
)

var (
	ErrNotChannel  = fmt.Errorf("%w: сообщение переслано не из канала", domain.ErrValidation)
	ErrBotNotAdmin = errors.New("бот не является администратором канала или не может публиковать")
)

// Forwarded содержит данные канала из пересланного сообщения.
type Forwarded struct {
	ChatID int64
	Type   string
	Title  string
}

// Service управляет каналами пользователя.
type Service struct {
	repo      domain.ChannelRepo
	schedules domain.ScheduleStore
	inspector domain.ChatInspector
}

// NewService создаёт новый сервис каналов.
func NewService(repo domain.ChannelRepo, schedules domain.ScheduleStore, inspector domain.ChatInspector) *Service {
	return &Service{repo: repo, schedules: schedules, inspector: inspector}
}

// LinkChannel привязывает канал к пользователю по пересланному сообщению.
// Бот должен быть администратором с правом публикации, один канал нельзя добавить дважды.
func (s *Service) LinkChannel(ctx context.Context, ownerID int64, fwd Forwarded) (domain.Channel, error) {
	if fwd.ChatID == 0 || fwd.Type != "channel" {
		return domain.Channel{}, ErrNotChannel
	}
	if _, err := s.repo.GetChannelByChatID(ctx, fwd.ChatID); err == nil {
		return domain.Channel{}, domain.ErrChannelExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Channel{}, fmt.Errorf("поиск канала: %w", err)
	}

	member, err := s.inspector.BotMember(ctx, fwd.ChatID)
	if err != nil {
		if domain.IsAccessLost(err) {
			return domain.Channel{}, ErrBotNotAdmin
		}
		return domain.Channel{}, fmt.Errorf("проверка прав бота: %w", err)
	}
	if !member.IsAdministrator() {
		return domain.Channel{}, ErrBotNotAdmin
	}

	channel, err := s.repo.CreateChannel(ctx, domain.Channel{
		ChatID:  fwd.ChatID,
		Title:   NormalizeTitle(fwd.Title),
		OwnerID: ownerID,
	})
	if err != nil {
		return domain.Channel{}, fmt.Errorf("сохранение канала: %w", err)
	}
	return channel, nil
}

// ListChannels возвращает каналы пользователя.
func (s *Service) ListChannels(ctx context.Context, ownerID int64) ([]domain.Channel, error) {
	return s.repo.ListOwnerChannels(ctx, ownerID)
}

// GetOwned возвращает канал, если он принадлежит пользователю.
func (s *Service) GetOwned(ctx context.Context, ownerID, channelID int64) (domain.Channel, error) {
	channel, err := s.repo.GetChannel(ctx, channelID)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("получение канала: %w", err)
	}
	if channel.OwnerID != ownerID {
		return domain.Channel{}, domain.ErrForbidden
	}
	return channel, nil
}

// RemoveChannel удаляет канал пользователя вместе с постами и выключает его расписания.
func (s *Service) RemoveChannel(ctx context.Context, ownerID, channelID int64) (domain.Channel, error) {
	channel, err := s.GetOwned(ctx, ownerID, channelID)
	if err != nil {
		return domain.Channel{}, err
	}
	if _, err := s.schedules.DeactivateChannelSchedules(ctx, channel.ChatID); err != nil {
		return domain.Channel{}, fmt.Errorf("выключение расписаний: %w", err)
	}
	if err := s.repo.DeleteChannel(ctx, channel.ID); err != nil {
		return domain.Channel{}, fmt.Errorf("удаление канала: %w", err)
	}
	return channel, nil
}

// NormalizeTitle убирает лишние пробелы из названия канала.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}
