package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
	"tg-channel-scheduler/internal/recurrence"
)

// Outcome описывает итог обработки одной записи расписания.
type Outcome string

const (
	OutcomeSent           Outcome = "sent"
	OutcomeFailed         Outcome = "failed"
	OutcomeSkippedBanned  Outcome = "skipped_banned"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeResolveFailed  Outcome = "resolve_failed"
	OutcomeClaimFailed    Outcome = "claim_failed"
	OutcomeAlreadyClaimed Outcome = "already_claimed"
	OutcomePanic          Outcome = "panic"
)

// PostSource отдаёт пост по идентификатору.
type PostSource interface {
	GetPost(ctx context.Context, id int64) (domain.Post, error)
}

// ChannelSource отдаёт канал по chat id.
type ChannelSource interface {
	GetChannelByChatID(ctx context.Context, chatID int64) (domain.Channel, error)
}

// Executor обрабатывает одну наступившую запись расписания целиком:
// захват, отправка, перепланирование и уведомление владельца.
type Executor struct {
	schedules domain.ScheduleStore
	posts     PostSource
	channels  ChannelSource
	transport domain.Transport
	notifier  domain.Notifier
	loc       *time.Location
	log       zerolog.Logger
	now       func() time.Time
}

// NewExecutor создаёт исполнителя. loc используется для вычисления следующих запусков.
func NewExecutor(schedules domain.ScheduleStore, posts PostSource, channels ChannelSource, transport domain.Transport, notifier domain.Notifier, loc *time.Location, log zerolog.Logger) *Executor {
	if loc == nil {
		loc = time.UTC
	}
	return &Executor{
		schedules: schedules,
		posts:     posts,
		channels:  channels,
		transport: transport,
		notifier:  notifier,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}
}

// Execute обрабатывает запись. Ошибки и паники не выходят за пределы вызова.
func (e *Executor) Execute(ctx context.Context, s domain.Schedule) (outcome Outcome) {
	logger := e.log.With().
		Int64("schedule", s.ID).
		Int64("post", s.PostID).
		Int64("chat", s.ChannelChatID).
		Logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("scheduler: паника при обработке расписания")
			outcome = OutcomePanic
		}
		metrics.IncOccurrence(string(outcome))
	}()

	claimed, err := e.schedules.ClaimSchedule(ctx, s.ID)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: не удалось захватить расписание")
		return OutcomeClaimFailed
	}
	if !claimed {
		logger.Debug().Msg("scheduler: расписание уже обработано")
		return OutcomeAlreadyClaimed
	}

	post, err := e.posts.GetPost(ctx, s.PostID)
	if err != nil {
		return e.resolveFailed(logger, "пост", err)
	}
	channel, err := e.channels.GetChannelByChatID(ctx, s.ChannelChatID)
	if err != nil {
		return e.resolveFailed(logger, "канал", err)
	}

	if channel.IsBanned {
		logger.Info().Msg("scheduler: канал заблокирован, публикация пропущена")
		e.deactivateChannel(ctx, logger, s.ChannelChatID)
		e.notifier.Notify(ctx, s.UserID, fmt.Sprintf("⚠️ Публикация в заблокированный канал «%s» пропущена. Расписания этого канала остановлены.", channel.DisplayName()))
		return OutcomeSkippedBanned
	}

	if err := e.deliver(ctx, s.ChannelChatID, post.Content); err != nil {
		e.handleFailure(ctx, logger, s, channel, err)
		return OutcomeFailed
	}

	logger.Info().Msg("scheduler: пост опубликован")
	e.notifier.Notify(ctx, s.UserID, fmt.Sprintf("✅ Пост опубликован в канале «%s».", channel.DisplayName()))
	e.reschedule(ctx, logger, s)
	return OutcomeSent
}

func (e *Executor) resolveFailed(logger zerolog.Logger, what string, err error) Outcome {
	if errors.Is(err, domain.ErrNotFound) {
		logger.Error().Err(err).Msgf("scheduler: %s не найден, расписание остаётся выключенным", what)
		return OutcomeNotFound
	}
	logger.Error().Err(err).Msgf("scheduler: не удалось получить %s", what)
	return OutcomeResolveFailed
}

func (e *Executor) deliver(ctx context.Context, chatID int64, content domain.PostContent) error {
	if content.IsEmpty() {
		return &domain.DeliveryError{Kind: domain.DeliveryTransient, Err: fmt.Errorf("%w: в посте нет ни текста, ни вложения", domain.ErrValidation)}
	}
	if err := e.transport.Deliver(ctx, chatID, content); err != nil {
		return domain.AsDeliveryError(err)
	}
	return nil
}

func (e *Executor) handleFailure(ctx context.Context, logger zerolog.Logger, s domain.Schedule, channel domain.Channel, err error) {
	delivery := domain.AsDeliveryError(err)
	logger.Warn().Err(err).Str("kind", delivery.Kind.String()).Msg("scheduler: не удалось опубликовать пост")

	var text string
	switch {
	case delivery.Kind == domain.DeliveryAccessLost:
		e.deactivateChannel(ctx, logger, s.ChannelChatID)
		text = fmt.Sprintf("⚠️ Не удалось опубликовать пост в канале «%s». Похоже, бота удалили из канала или лишили прав. Все публикации в этот канал остановлены.", channel.DisplayName())
	case errors.Is(err, domain.ErrValidation):
		e.retire(ctx, logger, s)
		text = fmt.Sprintf("⚠️ Пост для канала «%s» пуст, публикация отменена. Отредактируйте пост и задайте расписание заново.", channel.DisplayName())
	default:
		e.reschedule(ctx, logger, s)
		text = fmt.Sprintf("⚠️ Не удалось опубликовать пост в канале «%s». Попробуем снова в следующий раз по расписанию.", channel.DisplayName())
		if !s.Recurring() {
			text = fmt.Sprintf("⚠️ Не удалось опубликовать пост в канале «%s». Разовая публикация отменена.", channel.DisplayName())
		}
	}
	e.notifier.Notify(ctx, s.UserID, text)
}

// reschedule вставляет следующий запуск повторяющегося расписания
// и удаляет захваченную запись. Разовые и исчерпанные расписания удаляются.
func (e *Executor) reschedule(ctx context.Context, logger zerolog.Logger, s domain.Schedule) {
	if !s.Recurring() {
		e.retire(ctx, logger, s)
		return
	}
	next, ok := recurrence.Next(s.CronExpr, e.now(), e.loc)
	if !ok {
		logger.Warn().Str("cron", s.CronExpr).Msg("scheduler: у выражения нет следующего запуска")
		e.retire(ctx, logger, s)
		return
	}
	created, err := e.schedules.AddSchedule(ctx, domain.FromSchedule(s, next))
	if err != nil {
		logger.Error().Err(err).Time("next_run_at", next).Msg("scheduler: перепланирование потеряно")
		return
	}
	if err := e.schedules.DeleteSchedule(ctx, s.ID); err != nil {
		logger.Warn().Err(err).Msg("scheduler: не удалось удалить выполненную запись")
	}
	logger.Info().Int64("next_schedule", created.ID).Time("next_run_at", created.NextRunAt).Msg("scheduler: следующий запуск запланирован")
}

func (e *Executor) retire(ctx context.Context, logger zerolog.Logger, s domain.Schedule) {
	if err := e.schedules.DeleteSchedule(ctx, s.ID); err != nil {
		logger.Warn().Err(err).Msg("scheduler: не удалось удалить завершённое расписание")
	}
}

func (e *Executor) deactivateChannel(ctx context.Context, logger zerolog.Logger, chatID int64) {
	n, err := e.schedules.DeactivateChannelSchedules(ctx, chatID)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: не удалось остановить расписания канала")
		return
	}
	metrics.AddDeactivated(n)
	if n > 0 {
		logger.Info().Int64("deactivated", n).Msg("scheduler: расписания канала остановлены")
	}
}
