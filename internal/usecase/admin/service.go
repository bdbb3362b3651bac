package admin

import (
	"context"
	"fmt"

	"tg-channel-scheduler/internal/domain"
)

// Service выполняет действия администратора бота.
type Service struct {
	admins    domain.AdminSet
	channels  domain.ChannelRepo
	schedules domain.ScheduleStore
	stats     domain.StatsRepo
}

// NewService создаёт сервис администратора.
func NewService(admins domain.AdminSet, channels domain.ChannelRepo, schedules domain.ScheduleStore, stats domain.StatsRepo) *Service {
	return &Service{admins: admins, channels: channels, schedules: schedules, stats: stats}
}

// IsAdmin сообщает, входит ли пользователь в ADMIN_USER_IDS.
func (s *Service) IsAdmin(userID int64) bool {
	return s.admins.IsAdmin(userID)
}

// Stats возвращает агрегированную статистику.
func (s *Service) Stats(ctx context.Context, adminID int64) (domain.Stats, error) {
	if !s.IsAdmin(adminID) {
		return domain.Stats{}, domain.ErrForbidden
	}
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("статистика: %w", err)
	}
	return stats, nil
}

// ListAllChannels возвращает все каналы бота.
func (s *Service) ListAllChannels(ctx context.Context, adminID int64) ([]domain.Channel, error) {
	if !s.IsAdmin(adminID) {
		return nil, domain.ErrForbidden
	}
	return s.channels.ListAllChannels(ctx)
}

// GetChannel возвращает любой канал по ID.
func (s *Service) GetChannel(ctx context.Context, adminID, channelID int64) (domain.Channel, error) {
	if !s.IsAdmin(adminID) {
		return domain.Channel{}, domain.ErrForbidden
	}
	return s.channels.GetChannel(ctx, channelID)
}

// ToggleBan переключает бан канала. При бане все расписания канала выключаются.
func (s *Service) ToggleBan(ctx context.Context, adminID, channelID int64) (domain.Channel, error) {
	channel, err := s.GetChannel(ctx, adminID, channelID)
	if err != nil {
		return domain.Channel{}, err
	}
	channel.IsBanned = !channel.IsBanned
	if err := s.channels.SetBanned(ctx, channel.ID, channel.IsBanned); err != nil {
		return domain.Channel{}, fmt.Errorf("бан канала: %w", err)
	}
	if channel.IsBanned {
		if _, err := s.schedules.DeactivateChannelSchedules(ctx, channel.ChatID); err != nil {
			return channel, fmt.Errorf("выключение расписаний: %w", err)
		}
	}
	return channel, nil
}

// ToggleVIP переключает VIP-статус канала. VIP-каналы не получают рассылки.
func (s *Service) ToggleVIP(ctx context.Context, adminID, channelID int64) (domain.Channel, error) {
	channel, err := s.GetChannel(ctx, adminID, channelID)
	if err != nil {
		return domain.Channel{}, err
	}
	channel.IsVIP = !channel.IsVIP
	if err := s.channels.SetVIP(ctx, channel.ID, channel.IsVIP); err != nil {
		return domain.Channel{}, fmt.Errorf("VIP канала: %w", err)
	}
	return channel, nil
}
