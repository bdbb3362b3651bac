package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tg-channel-scheduler/internal/domain"
)

type recordingRunner struct {
	mu      sync.Mutex
	ids     []int64
	ctxErrs []error
	outcome Outcome
	during  func()
}

func (r *recordingRunner) Execute(ctx context.Context, s domain.Schedule) Outcome {
	if r.during != nil {
		r.during()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, s.ID)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	if r.outcome == "" {
		return OutcomeSent
	}
	return r.outcome
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

func TestRunCycleProcessesOnlyDue(t *testing.T) {
	st := newStore()
	due := st.seed(t, dueRow(1, testChat, "0 9 * * *"))
	future := dueRow(1, testChat, "0 9 * * *")
	future.NextRunAt = testNow.Add(time.Hour)
	st.seed(t, future)
	inactive := st.seed(t, dueRow(1, testChat, "0 9 * * *"))
	if _, err := st.Memory.ClaimSchedule(context.Background(), inactive.ID); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	runner := &recordingRunner{}
	loop := NewLoop(st, runner, time.Minute, zerolog.Nop())
	loop.now = func() time.Time { return testNow.In(testLoc) }

	if err := loop.RunCycle(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(runner.ids) != 1 || runner.ids[0] != due.ID {
		t.Fatalf("ожидали обработку только записи %d, получили %v", due.ID, runner.ids)
	}
	if len(st.listed) != 1 || st.listed[0].Location() != time.UTC {
		t.Fatalf("выборка должна идти по UTC")
	}
	status := loop.Status()
	if status.Cycles != 1 || status.Processed != 1 || status.Sent != 1 {
		t.Fatalf("неожиданный статус: %+v", status)
	}
}

func TestRunCycleStoreError(t *testing.T) {
	st := newStore()
	st.listErr = errors.New("db down")
	loop := NewLoop(st, &recordingRunner{}, time.Minute, zerolog.Nop())

	if err := loop.RunCycle(context.Background()); err == nil {
		t.Fatalf("ожидали ошибку выборки")
	}
	if status := loop.Status(); status.LastError == "" || status.Cycles != 1 {
		t.Fatalf("ошибка должна попасть в статус: %+v", status)
	}
}

func TestRunCycleEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.due(t, "0 9 * * *")
	loop := NewLoop(f.store, f.executor, time.Minute, zerolog.Nop())
	loop.now = func() time.Time { return testNow }

	if err := loop.RunCycle(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := loop.RunCycle(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(f.transport.sent) != 1 {
		t.Fatalf("второй проход не должен повторять публикацию, отправок: %d", len(f.transport.sent))
	}
}

func TestRunCycleCancelDuringSendKeepsNextOccurrence(t *testing.T) {
	f := newFixture(t)
	first := f.due(t, "0 9 * * *")
	second := f.due(t, "0 18 * * *")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.transport.onDeliver = cancel
	loop := NewLoop(f.store, f.executor, time.Minute, zerolog.Nop())
	loop.now = func() time.Time { return testNow }

	if err := loop.RunCycle(ctx); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(f.transport.sent) != 1 {
		t.Fatalf("начатая публикация должна завершиться, отправок: %d", len(f.transport.sent))
	}
	if _, ok := f.store.get(first.ID); ok {
		t.Fatalf("выполненная запись должна быть удалена")
	}
	var next, untouched bool
	for _, row := range f.store.active(testChat) {
		switch {
		case row.ID == second.ID:
			untouched = true
		case row.CronExpr == "0 9 * * *" && row.NextRunAt.After(testNow):
			next = true
		}
	}
	if !next {
		t.Fatalf("после отмены должен остаться следующий запуск: %+v", f.store.active(testChat))
	}
	if !untouched {
		t.Fatalf("необработанная запись должна остаться активной до следующего прохода")
	}
	if len(f.notifier.notices) != 1 || !strings.HasPrefix(f.notifier.notices[0].text, "✅") {
		t.Fatalf("ожидали уведомление об успехе, получили %+v", f.notifier.notices)
	}
}

func TestStartAndStop(t *testing.T) {
	st := newStore()
	st.seed(t, dueRow(1, testChat, "0 9 * * *"))
	runner := &recordingRunner{}
	loop := NewLoop(st, runner, time.Hour, zerolog.Nop())
	loop.now = func() time.Time { return testNow }

	done := make(chan error, 1)
	go func() { done <- loop.Start(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for runner.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("первый проход не выполнился")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if !loop.Running() {
		t.Fatalf("ожидали состояние running")
	}
	if err := loop.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("повторный запуск должен вернуть ErrAlreadyRunning, получили %v", err)
	}

	loop.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("цикл не остановился")
	}
	if loop.Running() {
		t.Fatalf("ожидали состояние stopped")
	}
	if runner.count() != 1 {
		t.Fatalf("после остановки проходов быть не должно")
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	loop := NewLoop(newStore(), &recordingRunner{}, time.Hour, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Start(ctx) }()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("цикл не завершился после отмены контекста")
	}
	if loop.Running() {
		t.Fatalf("после отмены контекста цикл должен быть остановлен")
	}
}

func TestStopDuringCycleFinishesCurrentSchedule(t *testing.T) {
	st := newStore()
	st.seed(t, dueRow(1, testChat, "0 9 * * *"))
	st.seed(t, dueRow(1, testChat, "0 18 * * *"))
	runner := &recordingRunner{}
	loop := NewLoop(st, runner, time.Hour, zerolog.Nop())
	loop.now = func() time.Time { return testNow }
	runner.during = loop.Stop

	done := make(chan error, 1)
	go func() { done <- loop.Start(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("цикл не остановился")
	}
	if runner.count() != 1 {
		t.Fatalf("после остановки новые записи не берутся, обработано: %d", runner.count())
	}
	if runner.ctxErrs[0] != nil {
		t.Fatalf("начатая обработка не должна видеть отмену: %v", runner.ctxErrs[0])
	}
	if status := loop.Status(); status.Processed != 1 || status.State != StateStopped {
		t.Fatalf("неожиданный статус: %+v", status)
	}
}
