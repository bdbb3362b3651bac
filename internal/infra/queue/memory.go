package queue

import (
	"context"

	"tg-channel-scheduler/internal/domain"
)

// MemoryBroadcastQueue хранит задачи в памяти процесса для запуска без Redis и RabbitMQ.
type MemoryBroadcastQueue struct {
	jobs chan domain.BroadcastJob
}

// NewMemoryBroadcastQueue создаёт очередь заданной ёмкости.
func NewMemoryBroadcastQueue(size int) *MemoryBroadcastQueue {
	if size <= 0 {
		size = 16
	}
	return &MemoryBroadcastQueue{jobs: make(chan domain.BroadcastJob, size)}
}

// Enqueue кладёт задачу в очередь или ждёт свободного места.
func (q *MemoryBroadcastQueue) Enqueue(ctx context.Context, job domain.BroadcastJob) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive ждёт задачу. ack(false) возвращает её в конец очереди.
func (q *MemoryBroadcastQueue) Receive(ctx context.Context) (domain.BroadcastJob, domain.AckFunc, error) {
	select {
	case job := <-q.jobs:
		ack := func(success bool) error {
			if success {
				return nil
			}
			return q.Enqueue(context.Background(), job)
		}
		return job, ack, nil
	case <-ctx.Done():
		return domain.BroadcastJob{}, nil, ctx.Err()
	}
}
