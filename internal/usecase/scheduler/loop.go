package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
)

// DefaultInterval задаёт период опроса расписаний по умолчанию.
const DefaultInterval = time.Minute

// ExecuteTimeout ограничивает обработку одной записи. Отмена контекста цикла
// на начатую обработку не влияет: захваченная запись всегда получает следующий запуск.
const ExecuteTimeout = time.Minute

// ErrAlreadyRunning возвращается при повторном запуске цикла.
var ErrAlreadyRunning = errors.New("планировщик уже запущен")

// State описывает состояние цикла.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// DueLister отдаёт наступившие активные расписания.
type DueLister interface {
	ListDueSchedules(ctx context.Context, now time.Time) ([]domain.Schedule, error)
}

// Runner обрабатывает одну запись расписания.
type Runner interface {
	Execute(ctx context.Context, s domain.Schedule) Outcome
}

// Status хранит снимок состояния цикла для /health.
type Status struct {
	State       State     `json:"state"`
	Interval    string    `json:"interval"`
	LastCycleAt time.Time `json:"last_cycle_at,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Cycles      uint64    `json:"cycles"`
	Processed   uint64    `json:"processed"`
	Sent        uint64    `json:"sent"`
	Failed      uint64    `json:"failed"`
}

// Loop периодически выбирает наступившие расписания и последовательно передаёт их исполнителю.
type Loop struct {
	store    DueLister
	runner   Runner
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu     sync.Mutex
	stop   chan struct{}
	status Status
}

// NewLoop создаёт цикл планировщика в состоянии stopped.
func NewLoop(store DueLister, runner Runner, interval time.Duration, log zerolog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		store:    store,
		runner:   runner,
		interval: interval,
		log:      log,
		now:      time.Now,
		status:   Status{State: StateStopped, Interval: interval.String()},
	}
}

// Start переводит цикл в running и блокируется до Stop или отмены ctx.
// Первый проход выполняется сразу. После Stop или отмены ctx новые записи не берутся,
// а уже начатая доводится до конца.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.stop != nil {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	stop := make(chan struct{})
	l.stop = stop
	l.status.State = StateRunning
	l.mu.Unlock()

	l.log.Info().Dur("interval", l.interval).Msg("scheduler: цикл запущен")
	defer l.finish(stop)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		if !l.active(stop) {
			return nil
		}
		_ = l.runCycle(ctx, stop)
		select {
		case <-ctx.Done():
			return nil
		case <-stop:
			return nil
		case <-ticker.C:
		}
	}
}

// Stop запрещает новые проходы. Текущий проход доводится до конца.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop == nil {
		return
	}
	close(l.stop)
	l.stop = nil
	l.status.State = StateStopped
	l.log.Info().Msg("scheduler: цикл остановлен")
}

// Status возвращает снимок состояния.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Running сообщает, что цикл запущен.
func (l *Loop) Running() bool {
	return l.Status().State == StateRunning
}

// RunCycle выполняет один проход: выборка наступивших расписаний и их обработка по очереди.
func (l *Loop) RunCycle(ctx context.Context) error {
	return l.runCycle(ctx, nil)
}

func (l *Loop) runCycle(ctx context.Context, stop <-chan struct{}) error {
	start := time.Now()
	now := l.now().UTC()
	due, err := l.store.ListDueSchedules(ctx, now)
	if err != nil {
		l.log.Error().Err(err).Msg("scheduler: ошибка выборки расписаний")
		metrics.ObserveCycle(start, err)
		l.record(now, err, nil)
		return err
	}
	if len(due) > 0 {
		l.log.Info().Int("due", len(due)).Msg("scheduler: найдены расписания к публикации")
	}

	outcomes := make([]Outcome, 0, len(due))
	for _, s := range due {
		if halted(ctx, stop) {
			l.log.Info().Int("left", len(due)-len(outcomes)).Msg("scheduler: проход прерван остановкой")
			break
		}
		outcomes = append(outcomes, l.execute(ctx, s))
	}
	metrics.ObserveCycle(start, nil)
	l.record(now, nil, outcomes)
	return nil
}

func (l *Loop) execute(ctx context.Context, s domain.Schedule) Outcome {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ExecuteTimeout)
	defer cancel()
	return l.runner.Execute(ctx, s)
}

func halted(ctx context.Context, stop <-chan struct{}) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

func (l *Loop) record(at time.Time, err error, outcomes []Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.Cycles++
	l.status.LastCycleAt = at
	l.status.LastError = ""
	if err != nil {
		l.status.LastError = err.Error()
	}
	for _, outcome := range outcomes {
		l.status.Processed++
		switch outcome {
		case OutcomeSent:
			l.status.Sent++
		case OutcomeFailed, OutcomePanic:
			l.status.Failed++
		}
	}
}

func (l *Loop) active(stop chan struct{}) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stop == stop
}

func (l *Loop) finish(stop chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop == stop {
		l.stop = nil
		l.status.State = StateStopped
		l.log.Info().Msg("scheduler: цикл завершён")
	}
}
