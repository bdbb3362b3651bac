package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"tg-channel-scheduler/internal/adapters/repo"
	"tg-channel-scheduler/internal/adapters/telegram"
	"tg-channel-scheduler/internal/infra/config"
	"tg-channel-scheduler/internal/infra/db"
	httpinfra "tg-channel-scheduler/internal/infra/http"
	applog "tg-channel-scheduler/internal/infra/log"
	"tg-channel-scheduler/internal/infra/metrics"
	"tg-channel-scheduler/internal/usecase/scheduler"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, cfg.LogLevel)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: некорректный часовой пояс")
	}

	if cfg.PGDSN == "" {
		logger.Fatal().Msg("scheduler: не указан адрес БД (PG_DSN)")
	}
	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
	}
	defer pool.Close()
	if err := db.Migrate(pool); err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось применить миграции")
	}
	store := repo.NewPostgres(pool)

	if cfg.Telegram.Token == "" {
		logger.Fatal().Msg("scheduler: не указан токен Telegram (TG_BOT_TOKEN)")
	}
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось создать бота")
	}

	executor := scheduler.NewExecutor(
		store, store, store,
		telegram.NewTransport(botAPI, logger.With().Str("component", "transport").Logger()),
		telegram.NewNotifier(botAPI, logger.With().Str("component", "notifier").Logger()),
		loc,
		logger.With().Str("component", "executor").Logger(),
	)
	loop := scheduler.NewLoop(store, executor, cfg.Scheduler.PollInterval, logger.With().Str("component", "scheduler").Logger())

	server := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	server.MountHealth("scheduler", map[string]httpinfra.HealthCheck{
		"scheduler": func() (any, bool) {
			status := loop.Status()
			return status, status.State == scheduler.StateRunning
		},
		"postgres": func() (any, bool) {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := pool.Ping(pingCtx); err != nil {
				return err.Error(), false
			}
			return "ok", true
		},
	})
	go func() {
		if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("scheduler: HTTP сервер остановлен с ошибкой")
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info().Msg("scheduler: получен сигнал остановки, дожидаемся текущей публикации")
		loop.Stop()
	}()

	logger.Info().Str("tz", loc.String()).Dur("interval", cfg.Scheduler.PollInterval).Msg("scheduler: запуск")
	if err := loop.Start(context.WithoutCancel(ctx)); err != nil {
		logger.Error().Err(err).Msg("scheduler: цикл завершился с ошибкой")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("scheduler: не удалось остановить HTTP сервер")
	}
	logger.Info().Msg("scheduler: остановлен")
}
