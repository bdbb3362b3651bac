package channels

import (
	"context"
	"errors"
	"testing"
	"time"

	"tg-channel-scheduler/internal/adapters/repo"
	"tg-channel-scheduler/internal/domain"
)

type stubInspector struct {
	member domain.ChatMember
	err    error
	calls  int
}

func (s *stubInspector) BotMember(context.Context, int64) (domain.ChatMember, error) {
	s.calls++
	return s.member, s.err
}

func TestLinkChannel(t *testing.T) {
	cases := []struct {
		name    string
		fwd     Forwarded
		member  domain.ChatMember
		inspErr error
		wantErr error
	}{
		{name: "администратор", fwd: Forwarded{ChatID: -100, Type: "channel", Title: "  Новости   дня "}, member: domain.ChatMember{Status: "administrator", CanPostMessages: true}},
		{name: "создатель", fwd: Forwarded{ChatID: -100, Type: "channel"}, member: domain.ChatMember{Status: "creator"}},
		{name: "без права публикации", fwd: Forwarded{ChatID: -100, Type: "channel"}, member: domain.ChatMember{Status: "administrator"}, wantErr: ErrBotNotAdmin},
		{name: "обычный участник", fwd: Forwarded{ChatID: -100, Type: "channel"}, member: domain.ChatMember{Status: "member"}, wantErr: ErrBotNotAdmin},
		{name: "бот не в канале", fwd: Forwarded{ChatID: -100, Type: "channel"}, inspErr: &domain.DeliveryError{Kind: domain.DeliveryAccessLost, Err: errors.New("chat not found")}, wantErr: ErrBotNotAdmin},
		{name: "группа", fwd: Forwarded{ChatID: -100, Type: "supergroup"}, wantErr: domain.ErrValidation},
		{name: "не пересылка", fwd: Forwarded{}, wantErr: domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := repo.NewMemory()
			service := NewService(store, store, &stubInspector{member: tc.member, err: tc.inspErr})
			channel, err := service.LinkChannel(context.Background(), 7, tc.fwd)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ожидали %v, получили %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("не ожидали ошибку: %v", err)
			}
			if channel.OwnerID != 7 || channel.ChatID != tc.fwd.ChatID {
				t.Fatalf("неожиданный канал: %+v", channel)
			}
			if tc.fwd.Title != "" && channel.Title != "Новости дня" {
				t.Fatalf("ожидали нормализованное название, получили %q", channel.Title)
			}
		})
	}
}

func TestLinkChannelTwice(t *testing.T) {
	store := repo.NewMemory()
	inspector := &stubInspector{member: domain.ChatMember{Status: "creator"}}
	service := NewService(store, store, inspector)
	fwd := Forwarded{ChatID: -100, Type: "channel", Title: "Новости"}
	if _, err := service.LinkChannel(context.Background(), 7, fwd); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := service.LinkChannel(context.Background(), 8, fwd); !errors.Is(err, domain.ErrChannelExists) {
		t.Fatalf("ожидали ErrChannelExists, получили %v", err)
	}
	if inspector.calls != 1 {
		t.Fatalf("повторный канал не должен проверяться в Telegram")
	}
}

func TestRemoveChannel(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemory()
	service := NewService(store, store, &stubInspector{member: domain.ChatMember{Status: "creator"}})
	channel, err := service.LinkChannel(ctx, 7, Forwarded{ChatID: -100, Type: "channel", Title: "Новости"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := store.AddSchedule(ctx, domain.NewSchedule{PostID: 1, ChannelChatID: -100, UserID: 7, CronExpr: "0 9 * * *", NextRunAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	if _, err := service.RemoveChannel(ctx, 8, channel.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("чужой канал удалять нельзя, получили %v", err)
	}
	if _, err := service.RemoveChannel(ctx, 7, channel.ID); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	list, _ := service.ListChannels(ctx, 7)
	if len(list) != 0 {
		t.Fatalf("канал должен быть удалён")
	}
	stats, _ := store.Stats(ctx)
	if stats.ActiveSchedules != 0 {
		t.Fatalf("расписания удалённого канала должны быть выключены")
	}
}

func TestNormalizeTitle(t *testing.T) {
	if got := NormalizeTitle("  Мой \n канал "); got != "Мой канал" {
		t.Fatalf("ожидали «Мой канал», получили %q", got)
	}
}
