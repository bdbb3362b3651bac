package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
)

const scheduleColumns = `id, post_id, channel_chat_id, user_id, kind, cron_expr, next_run_at, is_active, created_at`

func scanSchedule(row pgx.Row) (domain.Schedule, error) {
	var (
		s    domain.Schedule
		kind string
	)
	err := row.Scan(&s.ID, &s.PostID, &s.ChannelChatID, &s.UserID, &kind, &s.CronExpr, &s.NextRunAt, &s.IsActive, &s.CreatedAt)
	s.Kind = domain.ScheduleKind(kind)
	s.NextRunAt = s.NextRunAt.UTC()
	return s, err
}

func (p *Postgres) listSchedules(ctx context.Context, op, query string, args ...any) ([]domain.Schedule, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", op, "schedules", start, err)
	if err != nil {
		return nil, wrapErr("список расписаний", err)
	}
	defer rows.Close()

	var list []domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, wrapErr("чтение расписания", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("список расписаний", err)
	}
	return list, nil
}

// ListDueSchedules возвращает активные расписания, срок которых наступил.
func (p *Postgres) ListDueSchedules(ctx context.Context, now time.Time) ([]domain.Schedule, error) {
	return p.listSchedules(ctx, "schedules_list_due", `
SELECT `+scheduleColumns+` FROM schedules
WHERE is_active AND next_run_at <= $1
ORDER BY next_run_at, id`, now.UTC())
}

// ListPostSchedules возвращает активные расписания поста.
func (p *Postgres) ListPostSchedules(ctx context.Context, postID int64) ([]domain.Schedule, error) {
	return p.listSchedules(ctx, "schedules_list_post", `
SELECT `+scheduleColumns+` FROM schedules
WHERE post_id=$1 AND is_active
ORDER BY next_run_at`, postID)
}

// GetSchedule возвращает расписание по ID.
func (p *Postgres) GetSchedule(ctx context.Context, id int64) (domain.Schedule, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	s, err := scanSchedule(p.pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id=$1`, id))
	metrics.ObserveNetworkRequest("postgres", "schedules_get", "schedules", start, err)
	if err != nil {
		return domain.Schedule{}, wrapErr("получение расписания", err)
	}
	return s, nil
}

// ClaimSchedule снимает флаг активности только у активной записи.
func (p *Postgres) ClaimSchedule(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `UPDATE schedules SET is_active=FALSE WHERE id=$1 AND is_active`, id)
	metrics.ObserveNetworkRequest("postgres", "schedules_claim", "schedules", start, err)
	if err != nil {
		return false, wrapErr("захват расписания", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteSchedule удаляет запись расписания.
func (p *Postgres) DeleteSchedule(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM schedules WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "schedules_delete", "schedules", start, err)
	return wrapErr("удаление расписания", err)
}

// AddSchedule вставляет новую активную запись.
func (p *Postgres) AddSchedule(ctx context.Context, s domain.NewSchedule) (domain.Schedule, error) {
	if s.NextRunAt.IsZero() {
		return domain.Schedule{}, fmt.Errorf("добавление расписания: %w: не задано время запуска", domain.ErrValidation)
	}
	kind := s.Kind
	if kind == "" {
		kind = domain.ScheduleRecurring
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	created, err := scanSchedule(p.pool.QueryRow(ctx, `
INSERT INTO schedules (post_id, channel_chat_id, user_id, kind, cron_expr, next_run_at, is_active)
VALUES ($1, $2, $3, $4, $5, $6, TRUE)
RETURNING `+scheduleColumns,
		s.PostID, s.ChannelChatID, s.UserID, string(kind), s.CronExpr, s.NextRunAt.UTC()))
	metrics.ObserveNetworkRequest("postgres", "schedules_insert", "schedules", start, err)
	if err != nil {
		return domain.Schedule{}, wrapErr("добавление расписания", err)
	}
	return created, nil
}

// DeactivateChannelSchedules отключает все активные расписания канала.
func (p *Postgres) DeactivateChannelSchedules(ctx context.Context, chatID int64) (int64, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `UPDATE schedules SET is_active=FALSE WHERE channel_chat_id=$1 AND is_active`, chatID)
	metrics.ObserveNetworkRequest("postgres", "schedules_deactivate_channel", "schedules", start, err)
	if err != nil {
		return 0, wrapErr("отключение расписаний канала", err)
	}
	return tag.RowsAffected(), nil
}
