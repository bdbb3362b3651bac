package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"tg-channel-scheduler/internal/adapters/repo"
	"tg-channel-scheduler/internal/domain"
)

func newService(t *testing.T) (*Service, *repo.Memory, domain.Channel) {
	t.Helper()
	ctx := context.Background()
	store := repo.NewMemory()
	channel, err := store.CreateChannel(ctx, domain.Channel{ChatID: -100, Title: "Новости", OwnerID: 7})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	admins, err := domain.ParseAdminIDs([]string{"1"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	return NewService(admins, store, store, store), store, channel
}

func TestToggleBanDeactivatesSchedules(t *testing.T) {
	ctx := context.Background()
	service, store, channel := newService(t)
	for i := 0; i < 2; i++ {
		if _, err := store.AddSchedule(ctx, domain.NewSchedule{PostID: 1, ChannelChatID: channel.ChatID, UserID: 7, CronExpr: "0 9 * * *", NextRunAt: time.Now().Add(time.Hour)}); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}

	banned, err := service.ToggleBan(ctx, 1, channel.ID)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !banned.IsBanned {
		t.Fatalf("канал должен быть забанен")
	}
	stats, err := service.Stats(ctx, 1)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if stats.ActiveSchedules != 0 || stats.BannedChannels != 1 {
		t.Fatalf("неожиданная статистика: %+v", stats)
	}

	unbanned, err := service.ToggleBan(ctx, 1, channel.ID)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if unbanned.IsBanned {
		t.Fatalf("повторное переключение снимает бан")
	}
}

func TestToggleVIP(t *testing.T) {
	ctx := context.Background()
	service, store, channel := newService(t)
	if _, err := service.ToggleVIP(ctx, 1, channel.ID); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	targets, _ := store.ListBroadcastTargets(ctx)
	if len(targets) != 0 {
		t.Fatalf("VIP-канал не должен получать рассылку")
	}
}

func TestNonAdminIsForbidden(t *testing.T) {
	ctx := context.Background()
	service, _, channel := newService(t)
	if service.IsAdmin(7) {
		t.Fatalf("7 не администратор")
	}
	if _, err := service.Stats(ctx, 7); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
	if _, err := service.ToggleBan(ctx, 7, channel.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
	if _, err := service.ListAllChannels(ctx, 7); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
}
