package redis

import (
	"context"
	"fmt"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/sellerpulse-backend/pkg/config"
)

func TestDeleteMatchingScansAllPages(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	mock.pageSize = 2
	client := &Client{store: mock}

	for _, key := range []string{"sp:snapshot:acme:weekly:a", "sp:snapshot:acme:*:b", "sp:snapshot:acme:monthly:c", "sp:snapshot:birch:weekly:a"} {
		if err := client.Set(ctx, key, "{}", time.Minute); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	deleted, err := client.DeleteMatching(ctx, client.SnapshotPattern("acme"))
	if err != nil {
		t.Fatalf("delete matching: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted keys, got %d", deleted)
	}
	if _, err := client.Get(ctx, "sp:snapshot:birch:weekly:a"); err != nil {
		t.Fatalf("other seller's snapshot should survive: %v", err)
	}
	if mock.scanCalls < 2 {
		t.Fatalf("expected paged scan, got %d calls", mock.scanCalls)
	}
}

func TestDeleteMatchingEscapedSeller(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	for _, key := range []string{"sp:snapshot:a*:weekly", "sp:snapshot:ab:weekly", "sp:snapshot:a[b]:weekly", "sp:snapshot:ab]:weekly"} {
		if err := client.Set(ctx, key, "{}", time.Minute); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	deleted, err := client.DeleteMatching(ctx, client.SnapshotPattern(EscapePattern("a*")))
	if err != nil {
		t.Fatalf("delete matching: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected only the literal seller to match, deleted %d", deleted)
	}
	deleted, err = client.DeleteMatching(ctx, client.SnapshotPattern(EscapePattern("a[b]")))
	if err != nil {
		t.Fatalf("delete matching: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected bracket seller to match literally, deleted %d", deleted)
	}
	if _, err := client.Get(ctx, "sp:snapshot:ab:weekly"); err != nil {
		t.Fatalf("other seller's snapshot should survive: %v", err)
	}
	if got := EscapePattern(`a\b?`); got != `a\\b\?` {
		t.Fatalf("unexpected escape %s", got)
	}
}

func TestSetNXAndDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, "k", "owner-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "k", "owner-2", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second SetNX to lose, ok=%v err=%v", ok, err)
	}
	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := client.Get(ctx, "k"); err != Nil {
		t.Fatalf("expected Nil after delete, got %v", err)
	}
	if err := client.Del(ctx); err != nil {
		t.Fatalf("empty delete should be a no-op: %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := client.DeleteMatching(context.Background(), "*"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "sp:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.SnapshotKey("acme:weekly:*:*"); got != "sp:snapshot:acme:weekly:*:*" {
		t.Fatalf("unexpected snapshot key %s", got)
	}
	if got := client.SnapshotPattern("acme"); got != "sp:snapshot:acme:*" {
		t.Fatalf("unexpected snapshot pattern %s", got)
	}
	if got := client.LockKey(" cron "); got != "sp:lock:cron" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.IdempotencyKey("scope", ""); got != "sp:idempotency:scope" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected missing address to fail")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/2", PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
}

type mockCmdable struct {
	data      map[string]string
	pageSize  int
	scanCalls int
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string), pageSize: 100}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Scan pages through the sorted keyspace; the cursor is the next offset.
func (m *mockCmdable) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	m.scanCalls++
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	start := int(cursor)
	end := start + m.pageSize
	if end > len(keys) {
		end = len(keys)
	}
	var page []string
	for _, key := range keys[start:end] {
		if ok, _ := path.Match(match, key); ok {
			page = append(page, key)
		}
	}
	next := uint64(end)
	if end >= len(keys) {
		next = 0
	}
	cmd := redis.NewScanCmd(ctx, nil)
	cmd.SetVal(page, next)
	return cmd
}
