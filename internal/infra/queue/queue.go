package queue

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"tg-channel-scheduler/internal/domain"
)

// Драйверы очереди рассылок.
const (
	DriverRedis    = "redis"
	DriverRabbitMQ = "rabbitmq"
	DriverMemory   = "memory"
)

// Options описывает выбор реализации очереди.
type Options struct {
	Driver    string
	Key       string
	Redis     *redis.Client
	RabbitURL string
}

// NewBroadcastQueue создаёт очередь выбранного драйвера. Возвращаемая функция освобождает соединения.
func NewBroadcastQueue(opts Options) (domain.BroadcastQueue, func() error, error) {
	noop := func() error { return nil }
	switch opts.Driver {
	case DriverRedis, "":
		if opts.Redis == nil {
			return nil, nil, fmt.Errorf("очередь redis: не указан адрес Redis (REDIS_ADDR)")
		}
		return NewRedisBroadcastQueue(opts.Redis, opts.Key), noop, nil
	case DriverRabbitMQ:
		if opts.RabbitURL == "" {
			return nil, nil, fmt.Errorf("очередь rabbitmq: не указан адрес RabbitMQ (RABBITMQ_URL)")
		}
		q, err := NewRabbitBroadcastQueue(opts.RabbitURL, opts.Key)
		if err != nil {
			return nil, nil, err
		}
		return q, q.Close, nil
	case DriverMemory:
		return NewMemoryBroadcastQueue(0), noop, nil
	}
	return nil, nil, fmt.Errorf("неизвестный драйвер очереди %q", opts.Driver)
}
