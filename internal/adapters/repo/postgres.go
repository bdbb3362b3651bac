package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ChannelRepo  = (*Postgres)(nil)
	_ domain.PostRepo     = (*Postgres)(nil)
	_ domain.ScheduleRepo = (*Postgres)(nil)
	_ domain.StatsRepo    = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// wrapErr приводит ошибки pgx к доменной таксономии.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "channels_chat_id_key" {
		return fmt.Errorf("%s: %w", op, domain.ErrChannelExists)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}

const channelColumns = `id, chat_id, title, owner_id, is_vip, is_banned, created_at`

func scanChannel(row pgx.Row) (domain.Channel, error) {
	var ch domain.Channel
	err := row.Scan(&ch.ID, &ch.ChatID, &ch.Title, &ch.OwnerID, &ch.IsVIP, &ch.IsBanned, &ch.CreatedAt)
	return ch, err
}

// CreateChannel сохраняет канал. Повторный chat_id возвращает domain.ErrChannelExists.
func (p *Postgres) CreateChannel(ctx context.Context, ch domain.Channel) (domain.Channel, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	created, err := scanChannel(p.pool.QueryRow(ctx, `
INSERT INTO channels (chat_id, title, owner_id)
VALUES ($1, $2, $3)
RETURNING `+channelColumns, ch.ChatID, ch.Title, ch.OwnerID))
	metrics.ObserveNetworkRequest("postgres", "channels_insert", "channels", start, err)
	if err != nil {
		return domain.Channel{}, wrapErr("добавление канала", err)
	}
	return created, nil
}

// GetChannel возвращает канал по внутреннему ID.
func (p *Postgres) GetChannel(ctx context.Context, id int64) (domain.Channel, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	ch, err := scanChannel(p.pool.QueryRow(ctx, `SELECT `+channelColumns+` FROM channels WHERE id=$1`, id))
	metrics.ObserveNetworkRequest("postgres", "channels_get", "channels", start, err)
	if err != nil {
		return domain.Channel{}, wrapErr("получение канала", err)
	}
	return ch, nil
}

// GetChannelByChatID возвращает канал по Telegram chat_id.
func (p *Postgres) GetChannelByChatID(ctx context.Context, chatID int64) (domain.Channel, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	ch, err := scanChannel(p.pool.QueryRow(ctx, `SELECT `+channelColumns+` FROM channels WHERE chat_id=$1`, chatID))
	metrics.ObserveNetworkRequest("postgres", "channels_get_by_chat", "channels", start, err)
	if err != nil {
		return domain.Channel{}, wrapErr("получение канала по chat_id", err)
	}
	return ch, nil
}

// ListOwnerChannels возвращает каналы пользователя.
func (p *Postgres) ListOwnerChannels(ctx context.Context, ownerID int64) ([]domain.Channel, error) {
	return p.listChannels(ctx, "channels_list_owner", `SELECT `+channelColumns+` FROM channels WHERE owner_id=$1 ORDER BY created_at`, ownerID)
}

// ListAllChannels возвращает все каналы для администратора.
func (p *Postgres) ListAllChannels(ctx context.Context) ([]domain.Channel, error) {
	return p.listChannels(ctx, "channels_list_all", `SELECT `+channelColumns+` FROM channels ORDER BY created_at`)
}

// ListBroadcastTargets возвращает каналы, участвующие в рассылке: не VIP и не забаненные.
func (p *Postgres) ListBroadcastTargets(ctx context.Context) ([]domain.Channel, error) {
	return p.listChannels(ctx, "channels_list_broadcast", `SELECT `+channelColumns+` FROM channels WHERE NOT is_vip AND NOT is_banned ORDER BY id`)
}

func (p *Postgres) listChannels(ctx context.Context, op, query string, args ...any) ([]domain.Channel, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", op, "channels", start, err)
	if err != nil {
		return nil, wrapErr("список каналов", err)
	}
	defer rows.Close()

	var list []domain.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, wrapErr("чтение канала", err)
		}
		list = append(list, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("список каналов", err)
	}
	return list, nil
}

// SetBanned меняет флаг бана канала.
func (p *Postgres) SetBanned(ctx context.Context, id int64, banned bool) error {
	return p.updateChannelFlag(ctx, "channels_set_banned", `UPDATE channels SET is_banned=$2 WHERE id=$1`, id, banned)
}

// SetVIP меняет VIP-флаг канала.
func (p *Postgres) SetVIP(ctx context.Context, id int64, vip bool) error {
	return p.updateChannelFlag(ctx, "channels_set_vip", `UPDATE channels SET is_vip=$2 WHERE id=$1`, id, vip)
}

func (p *Postgres) updateChannelFlag(ctx context.Context, op, query string, id int64, value bool) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, query, id, value)
	metrics.ObserveNetworkRequest("postgres", op, "channels", start, err)
	if err != nil {
		return wrapErr("обновление канала", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("обновление канала: %w", domain.ErrNotFound)
	}
	return nil
}

// DeleteChannel удаляет канал вместе с постами.
func (p *Postgres) DeleteChannel(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM channels WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "channels_delete", "channels", start, err)
	if err != nil {
		return wrapErr("удаление канала", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("удаление канала: %w", domain.ErrNotFound)
	}
	return nil
}
