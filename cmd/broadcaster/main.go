package main

import (
	"context"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"tg-channel-scheduler/internal/adapters/repo"
	"tg-channel-scheduler/internal/adapters/telegram"
	"tg-channel-scheduler/internal/infra/config"
	"tg-channel-scheduler/internal/infra/db"
	applog "tg-channel-scheduler/internal/infra/log"
	"tg-channel-scheduler/internal/infra/metrics"
	"tg-channel-scheduler/internal/infra/queue"
	"tg-channel-scheduler/internal/usecase/broadcast"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, cfg.LogLevel)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	if cfg.PGDSN == "" {
		logger.Fatal().Msg("broadcaster: не указан адрес БД (PG_DSN)")
	}
	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("broadcaster: нет подключения к БД")
	}
	defer pool.Close()
	store := repo.NewPostgres(pool)

	if cfg.Broadcast.QueueDriver == queue.DriverMemory {
		logger.Fatal().Msg("broadcaster: очередь в памяти доступна только внутри bot-gateway")
	}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}
	jobs, closeQueue, err := queue.NewBroadcastQueue(queue.Options{
		Driver:    cfg.Broadcast.QueueDriver,
		Key:       cfg.Broadcast.QueueKey,
		Redis:     redisClient,
		RabbitURL: cfg.Broadcast.RabbitURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("broadcaster: не удалось инициализировать очередь")
	}
	defer closeQueue()

	if cfg.Telegram.Token == "" {
		logger.Fatal().Msg("broadcaster: не указан токен Telegram (TG_BOT_TOKEN)")
	}
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("broadcaster: не удалось создать бота")
	}

	worker := broadcast.NewWorker(
		jobs, store, store,
		telegram.NewTransport(botAPI, logger.With().Str("component", "transport").Logger()),
		telegram.NewNotifier(botAPI, logger.With().Str("component", "notifier").Logger()),
		cfg.Broadcast.RPS,
		logger.With().Str("component", "broadcaster").Logger(),
	)

	logger.Info().Str("driver", cfg.Broadcast.QueueDriver).Int("rps", cfg.Broadcast.RPS).Msg("broadcaster: запуск обработки очереди")
	worker.Run(ctx)
	logger.Info().Msg("broadcaster: остановлен")
}
