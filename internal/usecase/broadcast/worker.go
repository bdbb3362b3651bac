package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
)

// DefaultRPS задаёт скорость рассылки по умолчанию в сообщениях в секунду.
const DefaultRPS = 10

// Copier копирует сообщение в канал.
type Copier interface {
	Copy(ctx context.Context, chatID, fromChatID int64, messageID int) error
}

// Worker читает задачи рассылки и копирует сообщение во все каналы без VIP и бана.
type Worker struct {
	queue     domain.BroadcastQueue
	channels  domain.ChannelRepo
	schedules domain.ScheduleStore
	copier    Copier
	notifier  domain.Notifier
	limiter   *rate.Limiter
	log       zerolog.Logger
}

// NewWorker создаёт обработчик рассылок с ограничением rps сообщений в секунду.
func NewWorker(queue domain.BroadcastQueue, channels domain.ChannelRepo, schedules domain.ScheduleStore, copier Copier, notifier domain.Notifier, rps int, log zerolog.Logger) *Worker {
	if rps <= 0 {
		rps = DefaultRPS
	}
	return &Worker{
		queue:     queue,
		channels:  channels,
		schedules: schedules,
		copier:    copier,
		notifier:  notifier,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		log:       log,
	}
}

// Run обрабатывает очередь до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("broadcaster: ошибка чтения очереди")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		jobLog := w.log.With().Str("job_id", job.ID).Int64("admin", job.AdminID).Logger()
		if job.ID == "" || job.MessageID == 0 {
			jobLog.Error().Msg("broadcaster: получена некорректная задача, подтверждаем и пропускаем")
			if err := ack(true); err != nil {
				jobLog.Error().Err(err).Msg("broadcaster: не удалось подтвердить некорректную задачу")
			}
			continue
		}

		report, err := w.Process(ctx, job)
		if err != nil {
			jobLog.Warn().Err(err).Msg("broadcaster: рассылка не началась, вернём задачу в очередь")
			if ackErr := ack(false); ackErr != nil {
				jobLog.Error().Err(ackErr).Msg("broadcaster: не удалось вернуть задачу в очередь")
			}
			continue
		}
		jobLog.Info().
			Int("sent", report.Sent).
			Int("failed", report.Failed).
			Int("deactivated", report.Deactivated).
			Msg("broadcaster: рассылка завершена")
		if err := ack(true); err != nil {
			jobLog.Error().Err(err).Msg("broadcaster: не удалось подтвердить задачу")
		}
	}
}

// Process выполняет одну рассылку и отправляет администратору отчёт.
// Ошибка возвращается, только если рассылка не началась.
func (w *Worker) Process(ctx context.Context, job domain.BroadcastJob) (domain.BroadcastReport, error) {
	targets, err := w.channels.ListBroadcastTargets(ctx)
	if err != nil {
		return domain.BroadcastReport{}, fmt.Errorf("каналы для рассылки: %w", err)
	}

	var report domain.BroadcastReport
	for _, channel := range targets {
		if err := w.limiter.Wait(ctx); err != nil {
			w.log.Warn().Err(err).Str("job_id", job.ID).Msg("broadcaster: рассылка прервана")
			break
		}
		err := w.copier.Copy(ctx, channel.ChatID, job.FromChatID, job.MessageID)
		if err == nil {
			report.Sent++
			metrics.IncBroadcast("sent")
			continue
		}
		report.Failed++
		metrics.IncBroadcast("failed")
		w.log.Warn().Err(err).Int64("chat", channel.ChatID).Msg("broadcaster: не удалось отправить в канал")
		if domain.IsAccessLost(err) {
			n, derr := w.schedules.DeactivateChannelSchedules(ctx, channel.ChatID)
			if derr != nil {
				w.log.Error().Err(derr).Int64("chat", channel.ChatID).Msg("broadcaster: не удалось остановить расписания канала")
				continue
			}
			metrics.AddDeactivated(n)
			report.Deactivated++
		}
	}

	w.notifier.Notify(ctx, job.AdminID, FormatReport(report, len(targets)))
	return report, nil
}

// FormatReport готовит отчёт о рассылке для администратора.
func FormatReport(report domain.BroadcastReport, total int) string {
	text := fmt.Sprintf("📢 Рассылка завершена.\n\nКаналов: %d\n✅ Отправлено: %d\n❌ Ошибок: %d", total, report.Sent, report.Failed)
	if report.Deactivated > 0 {
		text += fmt.Sprintf("\n⏸ Каналов без доступа (расписания остановлены): %d", report.Deactivated)
	}
	return text
}
