package mq

import (
	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// zerologAdapter watermill.LoggerAdapter 的 zerolog 实现.
type zerologAdapter struct {
	l zerolog.Logger
}

// NewLogger 把 zerolog.Logger 包装成 watermill 日志接口.
// watermill 的 Info 多是订阅、路由启停之类的细节，统一降到 debug.
func NewLogger(l zerolog.Logger) watermill.LoggerAdapter {
	return &zerologAdapter{l: l}
}

// zerolog 只认未命名的 map 类型，LogFields 需要显式转换.
func fields(f watermill.LogFields) map[string]any { return map[string]any(f) }

func (z *zerologAdapter) Error(msg string, err error, f watermill.LogFields) {
	z.l.Error().Err(err).Fields(fields(f)).Msg(msg)
}

func (z *zerologAdapter) Info(msg string, f watermill.LogFields) {
	z.l.Debug().Fields(fields(f)).Msg(msg)
}

func (z *zerologAdapter) Debug(msg string, f watermill.LogFields) {
	z.l.Debug().Fields(fields(f)).Msg(msg)
}

func (z *zerologAdapter) Trace(msg string, f watermill.LogFields) {
	z.l.Trace().Fields(fields(f)).Msg(msg)
}

func (z *zerologAdapter) With(f watermill.LogFields) watermill.LoggerAdapter {
	return &zerologAdapter{l: z.l.With().Fields(fields(f)).Logger()}
}
