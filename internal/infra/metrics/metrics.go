package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	SchedulerCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_cycles_total",
		Help: "Количество циклов опроса планировщика",
	}, []string{"status"})
	SchedulerCycleSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_cycle_seconds",
		Help:    "Длительность цикла планировщика",
		Buckets: prometheus.DefBuckets,
	})
	ScheduleOccurrences = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_occurrences_total",
		Help: "Обработанные запуски расписаний по исходу",
	}, []string{"outcome"})
	SchedulesDeactivated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedules_deactivated_total",
		Help: "Расписания, отключённые из-за потери доступа или бана канала",
	})
	BotSendErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_send_errors_total",
		Help: "Ошибки отправки сообщений ботом",
	}, []string{"kind"})
	BroadcastMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcast_messages_total",
		Help: "Сообщения рассылки по статусу",
	}, []string{"status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		SchedulerCycles,
		SchedulerCycleSeconds,
		ScheduleOccurrences,
		SchedulesDeactivated,
		BotSendErrors,
		BroadcastMessages,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// Handler возвращает обработчик /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveCycle записывает длительность и итог цикла планировщика.
func ObserveCycle(start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SchedulerCycles.WithLabelValues(status).Inc()
	SchedulerCycleSeconds.Observe(time.Since(start).Seconds())
}

// IncOccurrence увеличивает счётчик запусков расписаний с указанным исходом.
func IncOccurrence(outcome string) {
	ScheduleOccurrences.WithLabelValues(outcome).Inc()
}

// AddDeactivated учитывает отключённые расписания.
func AddDeactivated(n int64) {
	if n > 0 {
		SchedulesDeactivated.Add(float64(n))
	}
}

// IncSendError учитывает ошибку отправки указанного вида.
func IncSendError(kind string) {
	BotSendErrors.WithLabelValues(kind).Inc()
}

// IncBroadcast учитывает сообщение рассылки.
func IncBroadcast(status string) {
	BroadcastMessages.WithLabelValues(status).Inc()
}
