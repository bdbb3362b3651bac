package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
)

const sessionKeyPrefix = "session:"

// RedisSessions реализует domain.SessionStore через Redis с TTL на ключе.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessions создаёт хранилище сессий.
func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{client: client, ttl: ttl}
}

func sessionKey(userID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(userID, 10)
}

// Get возвращает состояние пользователя. Отсутствующий или истёкший ключ означает Idle.
func (s *RedisSessions) Get(ctx context.Context, userID int64) (domain.SessionState, error) {
	start := time.Now()
	raw, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveNetworkRequest("redis", "get", "session", start, nil)
		return domain.Idle{}, nil
	}
	metrics.ObserveNetworkRequest("redis", "get", "session", start, err)
	if err != nil {
		return domain.Idle{}, fmt.Errorf("чтение сессии: %w", err)
	}
	state, err := domain.DecodeSession(raw)
	if err != nil {
		_ = s.client.Del(ctx, sessionKey(userID)).Err()
		return domain.Idle{}, err
	}
	return state, nil
}

// Set сохраняет состояние и продлевает срок жизни сессии.
func (s *RedisSessions) Set(ctx context.Context, userID int64, state domain.SessionState) error {
	if state == nil || state.Phase() == domain.PhaseIdle {
		return s.Clear(ctx, userID)
	}
	raw, err := domain.EncodeSession(state)
	if err != nil {
		return err
	}
	start := time.Now()
	err = s.client.Set(ctx, sessionKey(userID), raw, s.ttl).Err()
	metrics.ObserveNetworkRequest("redis", "set", "session", start, err)
	if err != nil {
		return fmt.Errorf("сохранение сессии: %w", err)
	}
	return nil
}

// Clear сбрасывает состояние пользователя.
func (s *RedisSessions) Clear(ctx context.Context, userID int64) error {
	start := time.Now()
	err := s.client.Del(ctx, sessionKey(userID)).Err()
	metrics.ObserveNetworkRequest("redis", "del", "session", start, err)
	return err
}
