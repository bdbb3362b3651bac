package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
)

const postColumns = `id, user_id, channel_id, text, media_kind, media_file, created_at, updated_at`

func scanPost(row pgx.Row) (domain.Post, error) {
	var (
		post domain.Post
		kind string
	)
	err := row.Scan(&post.ID, &post.UserID, &post.ChannelID, &post.Content.Text, &kind, &post.Content.Media.FileID, &post.CreatedAt, &post.UpdatedAt)
	post.Content.Media.Kind = domain.MediaKind(kind)
	return post, err
}

// CreatePost сохраняет новый пост.
func (p *Postgres) CreatePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	created, err := scanPost(p.pool.QueryRow(ctx, `
INSERT INTO posts (user_id, channel_id, text, media_kind, media_file)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+postColumns,
		post.UserID, post.ChannelID, post.Content.Text, string(post.Content.Media.Kind), post.Content.Media.FileID))
	metrics.ObserveNetworkRequest("postgres", "posts_insert", "posts", start, err)
	if err != nil {
		return domain.Post{}, wrapErr("создание поста", err)
	}
	return created, nil
}

// GetPost возвращает пост по ID.
func (p *Postgres) GetPost(ctx context.Context, id int64) (domain.Post, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	post, err := scanPost(p.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id))
	metrics.ObserveNetworkRequest("postgres", "posts_get", "posts", start, err)
	if err != nil {
		return domain.Post{}, wrapErr("получение поста", err)
	}
	return post, nil
}

// UpdatePostContent полностью заменяет текст и медиа поста.
func (p *Postgres) UpdatePostContent(ctx context.Context, id int64, content domain.PostContent) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE posts SET text=$2, media_kind=$3, media_file=$4, updated_at=now()
WHERE id=$1`, id, content.Text, string(content.Media.Kind), content.Media.FileID)
	metrics.ObserveNetworkRequest("postgres", "posts_update", "posts", start, err)
	if err != nil {
		return wrapErr("обновление поста", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("обновление поста: %w", domain.ErrNotFound)
	}
	return nil
}

// DeletePost удаляет пост. Его расписания отсеет планировщик.
func (p *Postgres) DeletePost(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "posts_delete", "posts", start, err)
	if err != nil {
		return wrapErr("удаление поста", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("удаление поста: %w", domain.ErrNotFound)
	}
	return nil
}

// ListChannelPosts возвращает посты канала.
func (p *Postgres) ListChannelPosts(ctx context.Context, channelID int64) ([]domain.Post, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT `+postColumns+` FROM posts WHERE channel_id=$1 ORDER BY created_at`, channelID)
	metrics.ObserveNetworkRequest("postgres", "posts_list_channel", "posts", start, err)
	if err != nil {
		return nil, wrapErr("список постов", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, wrapErr("чтение поста", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("список постов", err)
	}
	return posts, nil
}
