package tenants

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/worklog/internal/billing/money"
)

type countingLoader struct {
	calls    atomic.Int32
	settings map[int64]Settings
	release  chan struct{}
}

func (l *countingLoader) Settings(ctx context.Context, tenantID int64) (Settings, error) {
	l.calls.Add(1)
	if l.release != nil {
		<-l.release
	}
	s, ok := l.settings[tenantID]
	if !ok {
		return Settings{}, ErrNotFound
	}
	return s, nil
}

func newTestCache(t *testing.T, loader SettingsLoader) (*SettingsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSettingsCache(client, loader, time.Minute, nil), mr
}

func TestRoundingPolicyIsCached(t *testing.T) {
	loader := &countingLoader{settings: map[int64]Settings{
		1: {TenantID: 1, RoundingPolicy: money.RoundingCeil},
	}}
	cache, mr := newTestCache(t, loader)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		policy, err := cache.RoundingPolicy(ctx, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if policy != money.RoundingCeil {
			t.Fatalf("expected ceil, got %s", policy)
		}
	}
	if got := loader.calls.Load(); got != 1 {
		t.Fatalf("expected 1 loader call, got %d", got)
	}
	if !mr.Exists("tenants:settings:1") {
		t.Fatal("expected settings to be stored in redis")
	}
	if ttl := mr.TTL("tenants:settings:1"); ttl != time.Minute {
		t.Fatalf("expected ttl of one minute, got %s", ttl)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	loader := &countingLoader{settings: map[int64]Settings{
		1: {TenantID: 1, RoundingPolicy: money.RoundingRound},
	}}
	cache, _ := newTestCache(t, loader)
	ctx := context.Background()

	if _, err := cache.RoundingPolicy(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loader.settings[1] = Settings{TenantID: 1, RoundingPolicy: money.RoundingFloor}
	if err := cache.Invalidate(ctx, 1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	policy, err := cache.RoundingPolicy(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy != money.RoundingFloor {
		t.Fatalf("expected floor after invalidation, got %s", policy)
	}
	if got := loader.calls.Load(); got != 2 {
		t.Fatalf("expected 2 loader calls, got %d", got)
	}
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	loader := &countingLoader{
		settings: map[int64]Settings{7: {TenantID: 7, RoundingPolicy: money.RoundingCeil}},
		release:  make(chan struct{}),
	}
	cache, _ := newTestCache(t, loader)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.RoundingPolicy(ctx, 7)
			errs <- err
		}()
	}
	for loader.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(loader.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := loader.calls.Load(); got != 1 {
		t.Fatalf("expected a single shared load, got %d", got)
	}
}

func TestUnknownTenant(t *testing.T) {
	cache, mr := newTestCache(t, &countingLoader{settings: map[int64]Settings{}})

	_, err := cache.RoundingPolicy(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists("tenants:settings:99") {
		t.Fatal("failed loads must not be cached")
	}
}

func TestRedisOutageFallsBackToLoader(t *testing.T) {
	loader := &countingLoader{settings: map[int64]Settings{
		1: {TenantID: 1, RoundingPolicy: money.RoundingCeil},
	}}
	cache, mr := newTestCache(t, loader)
	mr.Close()

	policy, err := cache.RoundingPolicy(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy != money.RoundingCeil {
		t.Fatalf("expected ceil, got %s", policy)
	}
}

func TestNilClientDisablesCaching(t *testing.T) {
	loader := &countingLoader{settings: map[int64]Settings{1: {TenantID: 1}}}
	cache := NewSettingsCache(nil, loader, time.Minute, nil)

	for i := 0; i < 2; i++ {
		policy, err := cache.RoundingPolicy(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if policy != money.DefaultRoundingPolicy {
			t.Fatalf("expected default policy, got %s", policy)
		}
	}
	if got := loader.calls.Load(); got != 2 {
		t.Fatalf("expected 2 loader calls, got %d", got)
	}
	if err := cache.Invalidate(context.Background(), 1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
}
