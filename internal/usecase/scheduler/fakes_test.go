package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"tg-channel-scheduler/internal/adapters/repo"
	"tg-channel-scheduler/internal/domain"
)

// store оборачивает repo.Memory: подставляет ошибки в отдельные вызовы
// и, как настоящая БД, отказывает по отменённому контексту.
type store struct {
	*repo.Memory

	mu       sync.Mutex
	claimErr error
	addErr   error
	listErr  error
	listed   []time.Time
}

var _ domain.ScheduleStore = (*store)(nil)

func newStore() *store {
	return &store{Memory: repo.NewMemory()}
}

func (s *store) fail(ctx context.Context, injected error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return injected
}

func (s *store) ListDueSchedules(ctx context.Context, now time.Time) ([]domain.Schedule, error) {
	s.mu.Lock()
	s.listed = append(s.listed, now)
	s.mu.Unlock()
	if err := s.fail(ctx, s.listErr); err != nil {
		return nil, err
	}
	return s.Memory.ListDueSchedules(ctx, now)
}

func (s *store) ClaimSchedule(ctx context.Context, id int64) (bool, error) {
	if err := s.fail(ctx, s.claimErr); err != nil {
		return false, err
	}
	return s.Memory.ClaimSchedule(ctx, id)
}

func (s *store) AddSchedule(ctx context.Context, ns domain.NewSchedule) (domain.Schedule, error) {
	if err := s.fail(ctx, s.addErr); err != nil {
		return domain.Schedule{}, err
	}
	return s.Memory.AddSchedule(ctx, ns)
}

func (s *store) DeleteSchedule(ctx context.Context, id int64) error {
	if err := s.fail(ctx, nil); err != nil {
		return err
	}
	return s.Memory.DeleteSchedule(ctx, id)
}

func (s *store) DeactivateChannelSchedules(ctx context.Context, chatID int64) (int64, error) {
	if err := s.fail(ctx, nil); err != nil {
		return 0, err
	}
	return s.Memory.DeactivateChannelSchedules(ctx, chatID)
}

// seed добавляет запись в обход подстановки ошибок.
func (s *store) seed(t *testing.T, ns domain.NewSchedule) domain.Schedule {
	t.Helper()
	row, err := s.Memory.AddSchedule(context.Background(), ns)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	return row
}

func (s *store) get(id int64) (domain.Schedule, bool) {
	row, err := s.Memory.GetSchedule(context.Background(), id)
	return row, err == nil
}

func (s *store) active(chatID int64) []domain.Schedule {
	all, _ := s.Memory.ListDueSchedules(context.Background(), time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
	var rows []domain.Schedule
	for _, row := range all {
		if row.ChannelChatID == chatID {
			rows = append(rows, row)
		}
	}
	return rows
}

// dueRow описывает наступившую запись поста postID.
func dueRow(postID, chatID int64, cron string) domain.NewSchedule {
	kind := domain.ScheduleRecurring
	if cron == "" {
		kind = domain.ScheduleOnce
	}
	return domain.NewSchedule{
		PostID:        postID,
		ChannelChatID: chatID,
		UserID:        7,
		Kind:          kind,
		CronExpr:      cron,
		NextRunAt:     testNow.Add(-time.Minute),
	}
}

type sent struct {
	chatID  int64
	content domain.PostContent
}

type fakeTransport struct {
	mu        sync.Mutex
	err       error
	panic     bool
	onDeliver func()
	sent      []sent
}

func (f *fakeTransport) Deliver(ctx context.Context, chatID int64, content domain.PostContent) error {
	if f.onDeliver != nil {
		f.onDeliver()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("transport exploded")
	}
	if err := ctx.Err(); err != nil {
		return &domain.DeliveryError{Kind: domain.DeliveryTransient, Err: err}
	}
	f.sent = append(f.sent, sent{chatID: chatID, content: content})
	return f.err
}

type notice struct {
	userID int64
	text   string
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (f *fakeNotifier) Notify(_ context.Context, userID int64, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice{userID: userID, text: text})
}
