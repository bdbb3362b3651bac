package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"tg-channel-scheduler/internal/adapters/repo"
	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/recurrence"
)

var testLoc = time.FixedZone("UTC+1", 3600)

type fixture struct {
	store   *repo.Memory
	service *Service
	post    domain.Post
	channel domain.Channel
}

func newFixture(t *testing.T, now time.Time) fixture {
	t.Helper()
	ctx := context.Background()
	store := repo.NewMemory()
	channel, err := store.CreateChannel(ctx, domain.Channel{ChatID: -1001, Title: "Новости", OwnerID: 7})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	post, err := store.CreatePost(ctx, domain.Post{UserID: 7, ChannelID: channel.ID, Content: domain.PostContent{Text: "Доброе утро"}})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	service := NewService(store, store, store, testLoc)
	service.now = func() time.Time { return now }
	return fixture{store: store, service: service, post: post, channel: channel}
}

func TestScheduleRecurringDaily(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "сегодня",
			now:  time.Date(2025, 3, 10, 7, 0, 0, 0, testLoc),
			want: time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc),
		},
		{
			name: "завтра",
			now:  time.Date(2025, 3, 10, 9, 30, 0, 0, testLoc),
			want: time.Date(2025, 3, 11, 9, 0, 0, 0, testLoc),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.now)
			clock, err := recurrence.ParseClock("09:00")
			if err != nil {
				t.Fatalf("не ожидали ошибку: %v", err)
			}
			got, err := f.service.ScheduleRecurring(context.Background(), 7, f.post.ID, domain.RecurrenceDaily, &clock, time.Monday)
			if err != nil {
				t.Fatalf("не ожидали ошибку: %v", err)
			}
			if !got.Schedule.NextRunAt.In(testLoc).Equal(tc.want) {
				t.Fatalf("ожидали %s, получили %s", tc.want, got.Schedule.NextRunAt.In(testLoc))
			}
			if got.Schedule.CronExpr != "0 9 * * *" || !got.Schedule.IsActive {
				t.Fatalf("неожиданная запись: %+v", got.Schedule)
			}
			if got.Channel.ChatID != f.channel.ChatID {
				t.Fatalf("ожидали канал поста")
			}
			items, _ := f.store.ListPostSchedules(context.Background(), f.post.ID)
			if len(items) != 1 {
				t.Fatalf("ожидали одну запись, получили %d", len(items))
			}
		})
	}
}

func TestScheduleCustomValidates(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 7, 0, 0, 0, testLoc))
	for _, expr := range []string{"", "0 9 * *", "61 9 * * *", "0 9 * * * *", "каждый день"} {
		if _, err := f.service.ScheduleCustom(context.Background(), 7, f.post.ID, expr); !recurrence.IsInvalid(err) {
			t.Fatalf("ожидали ошибку валидации для %q, получили %v", expr, err)
		}
	}
	got, err := f.service.ScheduleCustom(context.Background(), 7, f.post.ID, " 0  */6 * * * ")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Schedule.CronExpr != "0 */6 * * *" {
		t.Fatalf("выражение должно быть нормализовано, получили %q", got.Schedule.CronExpr)
	}
}

func TestScheduleOwnerOnly(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 7, 0, 0, 0, testLoc))
	if _, err := f.service.ScheduleCustom(context.Background(), 8, f.post.ID, "0 9 * * *"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
	if _, err := f.service.ScheduleCustom(context.Background(), 7, 999, "0 9 * * *"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestScheduleRejectsBannedChannel(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 7, 0, 0, 0, testLoc))
	if err := f.store.SetBanned(context.Background(), f.channel.ID, true); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := f.service.ScheduleCustom(context.Background(), 7, f.post.ID, "0 9 * * *"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
}

func TestScheduleOnce(t *testing.T) {
	now := time.Date(2025, 3, 10, 7, 0, 0, 0, testLoc)
	f := newFixture(t, now)

	at, err := f.service.ParseOnce("2025-03-12 18:30")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	got, err := f.service.ScheduleOnce(context.Background(), 7, f.post.ID, at)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Schedule.Kind != domain.ScheduleOnce || got.Schedule.CronExpr != "" {
		t.Fatalf("ожидали разовую запись без cron: %+v", got.Schedule)
	}
	if !got.Schedule.NextRunAt.Equal(time.Date(2025, 3, 12, 18, 30, 0, 0, testLoc)) {
		t.Fatalf("неожиданное время: %s", got.Schedule.NextRunAt)
	}
	if _, err := f.service.ScheduleOnce(context.Background(), 7, f.post.ID, now.Add(-time.Minute)); !errors.Is(err, recurrence.ErrOnceInPast) {
		t.Fatalf("ожидали ErrOnceInPast, получили %v", err)
	}
}

func TestCancelSchedule(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 7, 0, 0, 0, testLoc))
	created, err := f.service.ScheduleRecurring(context.Background(), 7, f.post.ID, domain.RecurrenceWeekly, nil, time.Friday)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if created.Schedule.CronExpr != "0 12 * * 5" {
		t.Fatalf("ожидали полдень пятницы, получили %q", created.Schedule.CronExpr)
	}
	if _, err := f.service.CancelSchedule(context.Background(), 8, created.Schedule.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("чужое расписание отменять нельзя")
	}
	if _, err := f.service.CancelSchedule(context.Background(), 7, created.Schedule.ID); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	items, err := f.service.ListPostSchedules(context.Background(), 7, f.post.ID)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("после отмены расписаний быть не должно")
	}
}
