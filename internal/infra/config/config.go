package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	TZ          string `envconfig:"TIMEZONE" default:"Africa/Algiers"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	Telegram struct {
		Token      string `envconfig:"TG_BOT_TOKEN"`
		WebhookURL string `envconfig:"TG_WEBHOOK_URL"`
	} `envconfig:""`

	AdminUserIDs []string `envconfig:"ADMIN_USER_IDS" required:"true"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr  string        `envconfig:"REDIS_ADDR"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	Scheduler struct {
		PollInterval time.Duration `envconfig:"SCHEDULER_POLL_INTERVAL" default:"60s"`
	} `envconfig:""`

	Broadcast struct {
		RPS         int    `envconfig:"BROADCAST_RPS" default:"10"`
		QueueDriver string `envconfig:"BROADCAST_QUEUE_DRIVER" default:"redis"`
		QueueKey    string `envconfig:"BROADCAST_QUEUE_KEY" default:"broadcast_jobs"`
		RabbitURL   string `envconfig:"RABBITMQ_URL"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения, предварительно подхватив .env, если он есть.
func Load() AppConfig {
	_ = godotenv.Load()
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
