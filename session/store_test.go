package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(rdb, "nt"), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, KeyToken); err != nil || ok {
		t.Fatalf("empty store get: ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, KeyToken, "abc123"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := store.Set(ctx, KeyUsername, "alice"); err != nil {
		t.Fatalf("set username: %v", err)
	}
	v, ok, err := store.Get(ctx, KeyToken)
	if err != nil || !ok || v != "abc123" {
		t.Fatalf("get token: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := store.Remove(ctx, KeyToken, KeyUsername); err != nil {
		t.Fatalf("remove: %v", err)
	}
	for _, k := range []string{KeyToken, KeyUsername} {
		if _, ok, err := store.Get(ctx, k); err != nil || ok {
			t.Fatalf("key %s survived remove: ok=%v err=%v", k, ok, err)
		}
	}
	if err := store.Remove(ctx, KeyToken); err != nil {
		t.Fatalf("remove missing key: %v", err)
	}
	if err := store.Set(ctx, "", "x"); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStoreZeroValue(t *testing.T) {
	var m MemoryStore
	if err := m.Set(context.Background(), KeyToken, "t"); err != nil {
		t.Fatalf("zero value set: %v", err)
	}
}

func TestFileStoreContract(t *testing.T) {
	storeContract(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json")))
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	if err := NewFileStore(path).SetMany(ctx, map[string]string{KeyToken: "abc123", KeyUsername: "alice"}); err != nil {
		t.Fatalf("set many: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != fileStoreMode {
		t.Fatalf("expected mode %o, got %o", fileStoreMode, info.Mode().Perm())
	}

	sc := NewContext(NewFileStore(path), nil)
	if got := sc.Snapshot(ctx); got.Token != "abc123" || got.Username != "alice" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	if _, err := sc.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed after clear, stat err=%v", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, _, err := NewFileStore(path).Get(context.Background(), KeyToken)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestRedisStoreContract(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	storeContract(t, store)
}

func TestRedisStoreKeysUsePrefix(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.SetMany(ctx, map[string]string{KeyToken: "abc123", KeyUsername: "alice"}); err != nil {
		t.Fatalf("set many: %v", err)
	}
	got, err := mr.Get("nt:session:token")
	if err != nil {
		t.Fatalf("miniredis get: %v", err)
	}
	if got != "abc123" {
		t.Fatalf("expected abc123, got %q", got)
	}
	if mr.TTL("nt:session:token") != 0 {
		t.Fatal("session keys must not expire")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	store := NewRedisStore(rdb, "")
	mr.Close()

	sc := NewContext(store, nil)
	if sc.Authenticated(context.Background()) {
		t.Fatal("unreachable backend must read as unauthenticated")
	}
	if err := store.Set(context.Background(), KeyToken, "x"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
