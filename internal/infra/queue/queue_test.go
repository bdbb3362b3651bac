package queue

import (
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestNewBroadcastQueue(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	cases := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "memory", opts: Options{Driver: DriverMemory}},
		{name: "redis", opts: Options{Driver: DriverRedis, Key: "jobs", Redis: client}},
		{name: "redis без клиента", opts: Options{Driver: DriverRedis}, wantErr: true},
		{name: "rabbitmq без адреса", opts: Options{Driver: DriverRabbitMQ}, wantErr: true},
		{name: "неизвестный", opts: Options{Driver: "kafka"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, closeFn, err := NewBroadcastQueue(tc.opts)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ожидали ошибку")
				}
				return
			}
			if err != nil {
				t.Fatalf("не ожидали ошибку: %v", err)
			}
			if q == nil || closeFn() != nil {
				t.Fatalf("ожидали рабочую очередь")
			}
		})
	}
}
