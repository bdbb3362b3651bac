package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tg-channel-scheduler/internal/adapters/bot"
	"tg-channel-scheduler/internal/adapters/repo"
	"tg-channel-scheduler/internal/adapters/telegram"
	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/cache"
	"tg-channel-scheduler/internal/infra/config"
	"tg-channel-scheduler/internal/infra/db"
	httpinfra "tg-channel-scheduler/internal/infra/http"
	applog "tg-channel-scheduler/internal/infra/log"
	"tg-channel-scheduler/internal/infra/metrics"
	"tg-channel-scheduler/internal/infra/queue"
	"tg-channel-scheduler/internal/usecase/admin"
	"tg-channel-scheduler/internal/usecase/broadcast"
	"tg-channel-scheduler/internal/usecase/channels"
	"tg-channel-scheduler/internal/usecase/posts"
	"tg-channel-scheduler/internal/usecase/schedule"
	"tg-channel-scheduler/internal/usecase/scheduler"
)

const webhookPath = "/bot/webhook"

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, cfg.LogLevel)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway: некорректный часовой пояс")
	}
	admins, err := domain.ParseAdminIDs(cfg.AdminUserIDs)
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway: некорректный список администраторов")
	}

	if cfg.Telegram.Token == "" {
		logger.Fatal().Msg("gateway: не указан токен Telegram (TG_BOT_TOKEN)")
	}
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway: не удалось создать бота")
	}

	checks := map[string]httpinfra.HealthCheck{}

	// Без PG_DSN всё хранится в памяти процесса, а планировщик и рассылка работают здесь же.
	devMode := cfg.PGDSN == ""
	var store repo.Store
	if devMode {
		logger.Warn().Msg("gateway: PG_DSN не задан, данные хранятся в памяти")
		store = repo.NewMemory()
	} else {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("gateway: нет подключения к БД")
		}
		defer pool.Close()
		if err := db.Migrate(pool); err != nil {
			logger.Fatal().Err(err).Msg("gateway: не удалось применить миграции")
		}
		store = repo.NewPostgres(pool)
		checks["postgres"] = func() (any, bool) {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := pool.Ping(pingCtx); err != nil {
				return err.Error(), false
			}
			return "ok", true
		}
	}

	var redisClient *redis.Client
	var sessions domain.SessionStore
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		sessions = cache.NewRedisSessions(redisClient, cfg.SessionTTL)
		checks["redis"] = func() (any, bool) {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				return err.Error(), false
			}
			return "ok", true
		}
	} else {
		sessions = cache.NewMemorySessions(cfg.SessionTTL)
	}

	driver := cfg.Broadcast.QueueDriver
	if devMode {
		driver = queue.DriverMemory
	}
	jobs, closeQueue, err := queue.NewBroadcastQueue(queue.Options{
		Driver:    driver,
		Key:       cfg.Broadcast.QueueKey,
		Redis:     redisClient,
		RabbitURL: cfg.Broadcast.RabbitURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway: не удалось инициализировать очередь рассылок")
	}
	defer closeQueue()

	transport := telegram.NewTransport(botAPI, logger.With().Str("component", "transport").Logger())
	notifier := telegram.NewNotifier(botAPI, logger.With().Str("component", "notifier").Logger())

	h := bot.NewHandler(botAPI, logger.With().Str("component", "bot").Logger(), sessions, bot.Usecases{
		Channels:  channels.NewService(store, store, telegram.NewInspector(botAPI, botAPI.Self.ID)),
		Posts:     posts.NewService(store, store),
		Schedules: schedule.NewService(store, store, store, loc),
		Admin:     admin.NewService(admins, store, store, store),
		Broadcast: broadcast.NewService(admins, jobs),
	})

	loopDone := make(chan struct{})
	stopLoop := func() {}
	if devMode {
		executor := scheduler.NewExecutor(store, store, store, transport, notifier, loc, logger.With().Str("component", "executor").Logger())
		loop := scheduler.NewLoop(store, executor, cfg.Scheduler.PollInterval, logger.With().Str("component", "scheduler").Logger())
		checks["scheduler"] = func() (any, bool) {
			status := loop.Status()
			return status, status.State == scheduler.StateRunning
		}
		go func() {
			defer close(loopDone)
			if err := loop.Start(context.WithoutCancel(ctx)); err != nil {
				logger.Error().Err(err).Msg("scheduler: цикл завершился с ошибкой")
			}
		}()
		stopLoop = loop.Stop
	} else {
		close(loopDone)
	}
	if driver == queue.DriverMemory {
		worker := broadcast.NewWorker(jobs, store, store, transport, notifier, cfg.Broadcast.RPS, logger.With().Str("component", "broadcaster").Logger())
		go worker.Run(ctx)
	}

	server := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	server.MountHealth("bot-gateway", checks)

	if cfg.Telegram.WebhookURL != "" {
		mountWebhook(server, h, logger)
		webhook, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("gateway: некорректный адрес вебхука")
		}
		if _, err := botAPI.Request(webhook); err != nil {
			logger.Fatal().Err(err).Msg("gateway: не удалось установить вебхук")
		}
		logger.Info().Str("url", cfg.Telegram.WebhookURL).Msg("gateway: вебхук установлен")
	} else {
		if _, err := botAPI.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn().Err(err).Msg("gateway: не удалось снять вебхук")
		}
		go poll(ctx, botAPI, h, logger)
	}

	go func() {
		if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("gateway: HTTP сервер остановлен с ошибкой")
		}
	}()

	logger.Info().Bool("dev", devMode).Str("bot", botAPI.Self.UserName).Msg("бот-гейтвей запущен")
	<-ctx.Done()
	logger.Info().Msg("остановка бота")
	stopLoop()
	<-loopDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("gateway: не удалось остановить HTTP сервер")
	}
}

func mountWebhook(server *httpinfra.Server, h *bot.Handler, logger zerolog.Logger) {
	server.Router.Post(webhookPath, func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.HandleUpdate(r.Context(), update)
		w.WriteHeader(http.StatusOK)
	})
	logger.Info().Str("path", webhookPath).Msg("gateway: обработчик вебхука зарегистрирован")
}

func poll(ctx context.Context, botAPI *tgbotapi.BotAPI, h *bot.Handler, logger zerolog.Logger) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := botAPI.GetUpdatesChan(u)
	logger.Info().Msg("gateway: получение апдейтов long polling")
	for {
		select {
		case <-ctx.Done():
			botAPI.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}
