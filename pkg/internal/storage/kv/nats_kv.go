package kv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

// NATS KV 的键只允许 [-/_=.a-zA-Z0-9]，业务键（含 ':'、'@'）统一做 base64url 编码.
const natsKeyPrefix = "k."

func encodeNATSKey(key string) string {
	return natsKeyPrefix + base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeNATSKey(raw string) (string, bool) {
	enc, ok := strings.CutPrefix(raw, natsKeyPrefix)
	if !ok {
		return "", false
	}

	b, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return "", false
	}

	return string(b), true
}

// NATSKV 基于 JetStream KeyValue 的实现. 桶本身不支持按键 TTL，过期时间写在值的包装里.
type NATSKV struct {
	kv   nats.KeyValue
	conn *nats.Conn
}

// NewNATSKV 创建 NATS KV 实例.
func NewNATSKV(_ context.Context, cfg *configs.KVConfig) (KVStore, error) {
	natsConfig := cfg.NATS

	opts := []nats.Option{nats.Name(configs.AppName + "-kv")}
	if natsConfig.User != "" {
		opts = append(opts, nats.UserInfo(natsConfig.User, natsConfig.Password))
	}

	nc, err := nats.Connect(natsConfig.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.KeyValue(natsConfig.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: natsConfig.Bucket})
	}

	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create/get KV bucket: %w", err)
	}

	return &NATSKV{kv: kv, conn: nc}, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(_ context.Context, key string) ([]byte, error) {
	raw := encodeNATSKey(key)

	entry, err := n.kv.Get(raw)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, ok, err := unseal(entry.Value(), time.Now())
	if err != nil {
		return nil, err
	}

	if !ok {
		_ = n.kv.Delete(raw)

		return nil, ErrNotFound
	}

	return val, nil
}

// Set 设置键的值.
func (n *NATSKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := seal(value, ttl, time.Now())
	if err != nil {
		return err
	}

	if _, err = n.kv.Put(encodeNATSKey(key), encoded); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// Delete 删除键.
func (n *NATSKV) Delete(_ context.Context, key string) error {
	err := n.kv.Delete(encodeNATSKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查键是否存在.
func (n *NATSKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := n.Get(ctx, key)
	if IsNotFound(err) {
		return false, nil
	}

	return err == nil, err
}

// Keys 列出匹配 glob 模式的键，过期键惰性删除.
func (n *NATSKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	raws, err := n.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}

	result := make([]string, 0, len(raws))

	for _, raw := range raws {
		key, ok := decodeNATSKey(raw)
		if !ok {
			continue
		}

		if pattern != "" && pattern != "*" {
			if matched, _ := path.Match(pattern, key); !matched {
				continue
			}
		}

		if exists, _ := n.Exists(ctx, key); exists {
			result = append(result, key)
		}
	}

	return result, nil
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()

	return nil
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
