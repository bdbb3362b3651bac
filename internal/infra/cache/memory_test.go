package cache

import (
	"context"
	"testing"
	"time"

	"tg-channel-scheduler/internal/domain"
)

func TestMemorySessionsExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemorySessions(10 * time.Minute)
	store.now = func() time.Time { return now }

	if err := store.Set(ctx, 1, domain.AwaitingCustomCron{PostID: 5}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	state, _ := store.Get(ctx, 1)
	if got, ok := state.(domain.AwaitingCustomCron); !ok || got.PostID != 5 {
		t.Fatalf("ожидали AwaitingCustomCron{5}, получили %#v", state)
	}

	now = now.Add(11 * time.Minute)
	state, _ = store.Get(ctx, 1)
	if state.Phase() != domain.PhaseIdle {
		t.Fatalf("ожидали истечение сессии, получили %s", state.Phase())
	}
}

func TestMemorySessionsIdleClears(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessions(time.Minute)
	_ = store.Set(ctx, 1, domain.AwaitingChannelForward{})
	_ = store.Set(ctx, 1, domain.Idle{})
	if len(store.entries) != 0 {
		t.Fatalf("Idle должен очищать сессию")
	}
}
