package domain

import (
	"context"
	"time"
)

// BroadcastJob описывает задачу рассылки сообщения администратора по каналам.
type BroadcastJob struct {
	ID          string    `json:"job_id"`
	AdminID     int64     `json:"admin_id"`
	FromChatID  int64     `json:"from_chat_id"`
	MessageID   int       `json:"message_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// BroadcastQueue описывает очередь задач рассылки.
type BroadcastQueue interface {
	Enqueue(ctx context.Context, job BroadcastJob) error
	Receive(ctx context.Context) (BroadcastJob, AckFunc, error)
}

// AckFunc подтверждает успешную обработку или запрашивает повтор доставки задачи.
type AckFunc func(success bool) error

// BroadcastReport содержит итог рассылки.
type BroadcastReport struct {
	Sent        int
	Failed      int
	Deactivated int
}
