package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tg-channel-scheduler/internal/domain"
)

// Service ставит рассылки администратора в очередь.
type Service struct {
	admins domain.AdminSet
	queue  domain.BroadcastQueue
	now    func() time.Time
}

// NewService создаёт сервис рассылок.
func NewService(admins domain.AdminSet, queue domain.BroadcastQueue) *Service {
	return &Service{admins: admins, queue: queue, now: time.Now}
}

// Enqueue публикует задачу копирования сообщения messageID из чата fromChatID во все каналы рассылки.
func (s *Service) Enqueue(ctx context.Context, adminID, fromChatID int64, messageID int) (domain.BroadcastJob, error) {
	if !s.admins.IsAdmin(adminID) {
		return domain.BroadcastJob{}, domain.ErrForbidden
	}
	if messageID == 0 {
		return domain.BroadcastJob{}, fmt.Errorf("%w: нет сообщения для рассылки", domain.ErrValidation)
	}
	job := domain.BroadcastJob{
		ID:          uuid.NewString(),
		AdminID:     adminID,
		FromChatID:  fromChatID,
		MessageID:   messageID,
		RequestedAt: s.now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return domain.BroadcastJob{}, fmt.Errorf("постановка рассылки: %w", err)
	}
	return job, nil
}
