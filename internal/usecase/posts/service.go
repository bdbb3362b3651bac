package posts

import (
	"context"
	"fmt"
	"strings"

	"tg-channel-scheduler/internal/domain"
)

// ErrEmptyPost возвращается, если в посте нет ни текста, ни вложения.
var ErrEmptyPost = fmt.Errorf("%w: пост не может быть пустым", domain.ErrValidation)

// Service управляет шаблонами постов.
type Service struct {
	posts    domain.PostRepo
	channels domain.ChannelRepo
}

// NewService создаёт сервис постов.
func NewService(posts domain.PostRepo, channels domain.ChannelRepo) *Service {
	return &Service{posts: posts, channels: channels}
}

// CreatePost сохраняет новый пост в канале пользователя.
func (s *Service) CreatePost(ctx context.Context, userID, channelID int64, content domain.PostContent) (domain.Post, error) {
	content = clean(content)
	if content.IsEmpty() {
		return domain.Post{}, ErrEmptyPost
	}
	channel, err := s.channels.GetChannel(ctx, channelID)
	if err != nil {
		return domain.Post{}, fmt.Errorf("получение канала: %w", err)
	}
	if channel.OwnerID != userID {
		return domain.Post{}, domain.ErrForbidden
	}
	post, err := s.posts.CreatePost(ctx, domain.Post{UserID: userID, ChannelID: channel.ID, Content: content})
	if err != nil {
		return domain.Post{}, fmt.Errorf("создание поста: %w", err)
	}
	return post, nil
}

// UpdatePost полностью заменяет содержимое поста.
func (s *Service) UpdatePost(ctx context.Context, userID, postID int64, content domain.PostContent) (domain.Post, error) {
	content = clean(content)
	if content.IsEmpty() {
		return domain.Post{}, ErrEmptyPost
	}
	post, err := s.GetOwned(ctx, userID, postID)
	if err != nil {
		return domain.Post{}, err
	}
	if err := s.posts.UpdatePostContent(ctx, post.ID, content); err != nil {
		return domain.Post{}, fmt.Errorf("обновление поста: %w", err)
	}
	post.Content = content
	return post, nil
}

// DeletePost удаляет пост пользователя. Его расписания отсеются планировщиком.
func (s *Service) DeletePost(ctx context.Context, userID, postID int64) (domain.Post, error) {
	post, err := s.GetOwned(ctx, userID, postID)
	if err != nil {
		return domain.Post{}, err
	}
	if err := s.posts.DeletePost(ctx, post.ID); err != nil {
		return domain.Post{}, fmt.Errorf("удаление поста: %w", err)
	}
	return post, nil
}

// ListChannelPosts возвращает посты канала пользователя.
func (s *Service) ListChannelPosts(ctx context.Context, userID, channelID int64) ([]domain.Post, error) {
	channel, err := s.channels.GetChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("получение канала: %w", err)
	}
	if channel.OwnerID != userID {
		return nil, domain.ErrForbidden
	}
	return s.posts.ListChannelPosts(ctx, channel.ID)
}

// GetOwned возвращает пост, если он принадлежит пользователю.
func (s *Service) GetOwned(ctx context.Context, userID, postID int64) (domain.Post, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return domain.Post{}, fmt.Errorf("получение поста: %w", err)
	}
	if post.UserID != userID {
		return domain.Post{}, domain.ErrForbidden
	}
	return post, nil
}

func clean(content domain.PostContent) domain.PostContent {
	content.Text = strings.TrimSpace(content.Text)
	content.Media.FileID = strings.TrimSpace(content.Media.FileID)
	if content.Media.FileID == "" {
		content.Media = domain.Media{}
	}
	return content
}
