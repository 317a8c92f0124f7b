package kv

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// envelopePrefix NATS KV 的 bucket 只有统一 TTL，单键过期时间写在值里.
var envelopePrefix = []byte("SMTTL2:")

// envelope 带截止时间的值，Deadline 为 unix 毫秒.
type envelope struct {
	Value    []byte `json:"v"`
	Deadline int64  `json:"d"`
}

// seal ttl<=0 时原样返回，不加包装.
func seal(value []byte, ttl time.Duration, now time.Time) ([]byte, error) {
	if ttl <= 0 {
		return value, nil
	}

	b, err := sonic.Marshal(envelope{Value: value, Deadline: now.Add(ttl).UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("seal value: %w", err)
	}

	return append(append(make([]byte, 0, len(envelopePrefix)+len(b)), envelopePrefix...), b...), nil
}

// unseal 返回值本身，ok=false 表示已过期.
func unseal(b []byte, now time.Time) (value []byte, ok bool, err error) {
	if !bytes.HasPrefix(b, envelopePrefix) {
		return b, true, nil
	}

	var env envelope
	if err := sonic.Unmarshal(b[len(envelopePrefix):], &env); err != nil {
		return nil, false, fmt.Errorf("unseal value: %w", err)
	}

	if now.UnixMilli() >= env.Deadline {
		return nil, false, nil
	}

	return env.Value, true, nil
}
