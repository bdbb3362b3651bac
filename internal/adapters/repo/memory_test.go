package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"tg-channel-scheduler/internal/domain"
)

func TestMemoryClaimIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	s, err := mem.AddSchedule(ctx, domain.NewSchedule{PostID: 1, ChannelChatID: -100, UserID: 7, CronExpr: "0 9 * * *", NextRunAt: time.Now()})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if s.Kind != domain.ScheduleRecurring {
		t.Fatalf("вид по умолчанию должен быть recurring")
	}
	first, err := mem.ClaimSchedule(ctx, s.ID)
	if err != nil || !first {
		t.Fatalf("первый захват должен пройти: %v", err)
	}
	second, err := mem.ClaimSchedule(ctx, s.ID)
	if err != nil || second {
		t.Fatalf("повторный захват должен вернуть false без ошибки")
	}
}

func TestMemoryDueOrderAndChannelDeactivation(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	later, _ := mem.AddSchedule(ctx, domain.NewSchedule{PostID: 1, ChannelChatID: -100, NextRunAt: now.Add(-time.Minute), CronExpr: "0 9 * * *"})
	earlier, _ := mem.AddSchedule(ctx, domain.NewSchedule{PostID: 2, ChannelChatID: -100, NextRunAt: now.Add(-time.Hour), CronExpr: "0 9 * * *"})
	_, _ = mem.AddSchedule(ctx, domain.NewSchedule{PostID: 3, ChannelChatID: -200, NextRunAt: now.Add(time.Hour), CronExpr: "0 9 * * *"})

	due, _ := mem.ListDueSchedules(ctx, now)
	if len(due) != 2 || due[0].ID != earlier.ID || due[1].ID != later.ID {
		t.Fatalf("ожидали две записи по возрастанию времени, получили %+v", due)
	}
	n, _ := mem.DeactivateChannelSchedules(ctx, -100)
	if n != 2 {
		t.Fatalf("ожидали выключение двух записей, получили %d", n)
	}
	stats, _ := mem.Stats(ctx)
	if stats.ActiveSchedules != 1 {
		t.Fatalf("ожидали одно активное расписание, получили %d", stats.ActiveSchedules)
	}
}

func TestMemoryChannelUniqueness(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	ch, err := mem.CreateChannel(ctx, domain.Channel{ChatID: -100, Title: "Новости", OwnerID: 7})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := mem.CreateChannel(ctx, domain.Channel{ChatID: -100, OwnerID: 8}); !errors.Is(err, domain.ErrChannelExists) {
		t.Fatalf("ожидали ErrChannelExists, получили %v", err)
	}
	post, err := mem.CreatePost(ctx, domain.Post{UserID: 7, ChannelID: ch.ID, Content: domain.PostContent{Text: "текст"}})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := mem.DeleteChannel(ctx, ch.ID); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := mem.GetPost(ctx, post.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("посты удалённого канала должны исчезнуть")
	}
}
