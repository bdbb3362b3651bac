package cache

import (
	"context"
	"sync"
	"time"

	"tg-channel-scheduler/internal/domain"
)

type memoryEntry struct {
	state     domain.SessionState
	expiresAt time.Time
}

// MemorySessions хранит сессии в памяти процесса. Подходит для одного экземпляра бота.
type MemorySessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]memoryEntry
}

// NewMemorySessions создаёт хранилище сессий в памяти.
func NewMemorySessions(ttl time.Duration) *MemorySessions {
	return &MemorySessions{ttl: ttl, now: time.Now, entries: make(map[int64]memoryEntry)}
}

// Get возвращает состояние пользователя или Idle, если сессия истекла.
func (m *MemorySessions) Get(_ context.Context, userID int64) (domain.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[userID]
	if !ok {
		return domain.Idle{}, nil
	}
	if m.ttl > 0 && !m.now().Before(entry.expiresAt) {
		delete(m.entries, userID)
		return domain.Idle{}, nil
	}
	return entry.state, nil
}

// Set сохраняет состояние.
func (m *MemorySessions) Set(ctx context.Context, userID int64, state domain.SessionState) error {
	if state == nil || state.Phase() == domain.PhaseIdle {
		return m.Clear(ctx, userID)
	}
	m.mu.Lock()
	m.entries[userID] = memoryEntry{state: state, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

// Clear сбрасывает состояние пользователя.
func (m *MemorySessions) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	delete(m.entries, userID)
	m.mu.Unlock()
	return nil
}
