package kv_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/kv"
)

func TestMemoryKV_TTL(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	if err := store.Set(ctx, "profile:a@example.com", []byte("1"), 20*time.Millisecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := store.Set(ctx, "stats:all", []byte("2"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	keys, err := store.Keys(ctx, "profile:*")
	if err != nil || len(keys) != 1 {
		t.Fatalf("expected one profile key, got %v (%v)", keys, err)
	}

	time.Sleep(40 * time.Millisecond)

	if _, err := store.Get(ctx, "profile:a@example.com"); !kv.IsNotFound(err) {
		t.Errorf("expected expired key to be not found, got %v", err)
	}

	if ok, _ := store.Exists(ctx, "stats:all"); !ok {
		t.Error("key without ttl should not expire")
	}

	if err := store.Delete(ctx, "missing"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestNewKVStore_Unknown(t *testing.T) {
	if _, err := kv.NewKVStore(context.Background(), kv.KVType("groupcache"), nil); err == nil {
		t.Error("expected error for unregistered kv type")
	}
}

// 外部后端的行为测试默认跳过，设置 KV_REDIS_ADDR / KV_NATS_URL 后启用.
func externalStores(t *testing.T) map[string]kv.KVStore {
	t.Helper()

	ctx := context.Background()
	stores := map[string]kv.KVStore{}

	mem, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	stores["memory"] = mem

	if addr := os.Getenv("KV_REDIS_ADDR"); addr != "" {
		cfg := &configs.KVConfig{Type: configs.KVTypeRedis, Redis: configs.RedisKVConfig{Addr: addr}}
		if s, err := kv.NewKVStore(ctx, kv.KVTypeRedis, cfg); err == nil {
			stores["redis"] = s
		} else {
			t.Logf("redis unavailable: %v", err)
		}
	}

	if url := os.Getenv("KV_NATS_URL"); url != "" {
		cfg := &configs.KVConfig{Type: configs.KVTypeNATS, NATS: configs.NATSKVConfig{URL: url, Bucket: "smartmedia-test"}}
		if s, err := kv.NewKVStore(ctx, kv.KVTypeNATS, cfg); err == nil {
			stores["nats"] = s
		} else {
			t.Logf("nats unavailable: %v", err)
		}
	}

	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})

	return stores
}

func TestKVStore_Behaviour(t *testing.T) {
	for name, store := range externalStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			prefix := fmt.Sprintf("t%d", time.Now().UnixNano())

			for _, uid := range []string{"u1", "u2"} {
				if err := store.Set(ctx, prefix+"-profile-"+uid, []byte(uid), time.Minute); err != nil {
					t.Fatalf("set: %v", err)
				}
			}

			if err := store.Set(ctx, prefix+"-resp-x", []byte("{}"), 0); err != nil {
				t.Fatalf("set: %v", err)
			}

			got, err := store.Get(ctx, prefix+"-profile-u1")
			if err != nil || string(got) != "u1" {
				t.Fatalf("get = %q, %v", got, err)
			}

			keys, err := store.Keys(ctx, prefix+"-profile-*")
			if err != nil {
				t.Fatalf("keys: %v", err)
			}

			sort.Strings(keys)

			if len(keys) != 2 || keys[0] != prefix+"-profile-u1" {
				t.Errorf("unexpected keys %v", keys)
			}

			for _, k := range append(keys, prefix+"-resp-x") {
				if err := store.Delete(ctx, k); err != nil {
					t.Errorf("delete %s: %v", k, err)
				}
			}

			if ok, _ := store.Exists(ctx, prefix+"-resp-x"); ok {
				t.Error("deleted key still exists")
			}
		})
	}
}
