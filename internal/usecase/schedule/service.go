package schedule

import (
	"context"
	"fmt"
	"time"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/recurrence"
)

// Scheduled содержит созданную запись вместе с каналом для текста подтверждения.
type Scheduled struct {
	Schedule    domain.Schedule
	Channel     domain.Channel
	Description string
}

// Service отвечает за расписания публикаций пользователя.
type Service struct {
	posts     domain.PostRepo
	channels  domain.ChannelRepo
	schedules domain.ScheduleRepo
	loc       *time.Location
	now       func() time.Time
}

// NewService создаёт сервис. В поясе loc пользователь вводит время.
func NewService(posts domain.PostRepo, channels domain.ChannelRepo, schedules domain.ScheduleRepo, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{posts: posts, channels: channels, schedules: schedules, loc: loc, now: time.Now}
}

// Location возвращает часовой пояс сервиса.
func (s *Service) Location() *time.Location {
	return s.loc
}

// ScheduleRecurring создаёт ежедневное, еженедельное или «раз в два дня» расписание.
// at == nil означает полдень.
func (s *Service) ScheduleRecurring(ctx context.Context, userID, postID int64, kind domain.RecurrenceKind, at *recurrence.Clock, weekday time.Weekday) (Scheduled, error) {
	expr, err := recurrence.Build(kind, at, weekday)
	if err != nil {
		return Scheduled{}, err
	}
	return s.ScheduleCustom(ctx, userID, postID, expr)
}

// ScheduleCustom создаёт расписание по произвольному cron-выражению из пяти полей.
func (s *Service) ScheduleCustom(ctx context.Context, userID, postID int64, expr string) (Scheduled, error) {
	expr = recurrence.Normalize(expr)
	if !recurrence.Validate(expr) {
		return Scheduled{}, fmt.Errorf("%w: %q", recurrence.ErrInvalidExpression, expr)
	}
	post, channel, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return Scheduled{}, err
	}
	next, ok := recurrence.Next(expr, s.now(), s.loc)
	if !ok {
		return Scheduled{}, fmt.Errorf("%w: %q", recurrence.ErrInvalidExpression, expr)
	}
	created, err := s.schedules.AddSchedule(ctx, domain.NewSchedule{
		PostID:        post.ID,
		ChannelChatID: channel.ChatID,
		UserID:        userID,
		Kind:          domain.ScheduleRecurring,
		CronExpr:      expr,
		NextRunAt:     next.UTC(),
	})
	if err != nil {
		return Scheduled{}, fmt.Errorf("создание расписания: %w", err)
	}
	return Scheduled{Schedule: created, Channel: channel, Description: recurrence.Describe(expr)}, nil
}

// ScheduleOnce создаёт разовую публикацию. Момент должен быть в будущем.
func (s *Service) ScheduleOnce(ctx context.Context, userID, postID int64, at time.Time) (Scheduled, error) {
	if !at.After(s.now()) {
		return Scheduled{}, recurrence.ErrOnceInPast
	}
	post, channel, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return Scheduled{}, err
	}
	created, err := s.schedules.AddSchedule(ctx, domain.NewSchedule{
		PostID:        post.ID,
		ChannelChatID: channel.ChatID,
		UserID:        userID,
		Kind:          domain.ScheduleOnce,
		NextRunAt:     at.UTC(),
	})
	if err != nil {
		return Scheduled{}, fmt.Errorf("создание разовой публикации: %w", err)
	}
	return Scheduled{Schedule: created, Channel: channel, Description: "Разовая публикация"}, nil
}

// ParseOnce разбирает дату и время разовой публикации в часовом поясе сервиса.
func (s *Service) ParseOnce(input string) (time.Time, error) {
	return recurrence.ParseOnce(input, s.loc, s.now())
}

// ListPostSchedules возвращает активные расписания поста владельца.
func (s *Service) ListPostSchedules(ctx context.Context, userID, postID int64) ([]domain.Schedule, error) {
	if _, _, err := s.ownedPost(ctx, userID, postID); err != nil {
		return nil, err
	}
	items, err := s.schedules.ListPostSchedules(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("список расписаний: %w", err)
	}
	return items, nil
}

// CancelSchedule удаляет расписание владельца и возвращает его.
func (s *Service) CancelSchedule(ctx context.Context, userID, scheduleID int64) (domain.Schedule, error) {
	item, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("получение расписания: %w", err)
	}
	if item.UserID != userID {
		return domain.Schedule{}, domain.ErrForbidden
	}
	if err := s.schedules.DeleteSchedule(ctx, scheduleID); err != nil {
		return domain.Schedule{}, fmt.Errorf("удаление расписания: %w", err)
	}
	return item, nil
}

func (s *Service) ownedPost(ctx context.Context, userID, postID int64) (domain.Post, domain.Channel, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return domain.Post{}, domain.Channel{}, fmt.Errorf("получение поста: %w", err)
	}
	if post.UserID != userID {
		return domain.Post{}, domain.Channel{}, domain.ErrForbidden
	}
	channel, err := s.channels.GetChannel(ctx, post.ChannelID)
	if err != nil {
		return domain.Post{}, domain.Channel{}, fmt.Errorf("получение канала: %w", err)
	}
	if channel.IsBanned {
		return domain.Post{}, domain.Channel{}, fmt.Errorf("%w: канал заблокирован", domain.ErrForbidden)
	}
	return post, channel, nil
}
