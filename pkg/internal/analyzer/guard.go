package analyzer

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

// Guarded 给 Analyzer 加上客户端限速与熔断.
type Guarded struct {
	next    Analyzer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuarded 按配置包装 next. RPS 为 0 时不限速，熔断未启用时直接透传.
func NewGuarded(next Analyzer, cfg configs.AnalyzerConfig) *Guarded {
	g := &Guarded{next: next}

	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}

		g.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	cb := cfg.CircuitBreaker
	if cb.Enabled {
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "analyzer",
			MaxRequests: cb.MaxRequestsInHalf,
			Interval:    cb.Interval(),
			Timeout:     cb.Timeout(),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cb.MinRequests {
					return false
				}

				return float64(counts.TotalFailures)/float64(counts.Requests) >= cb.FailureRate
			},
			// 调用方取消与输出格式问题不代表服务不可用
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrMalformed)
			},
		})
	}

	return g
}

// Analyze 实现 Analyzer.
func (g *Guarded) Analyze(ctx context.Context, req Request) (*Result, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if g.breaker == nil {
		return g.next.Analyze(ctx, req)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Analyze(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(ErrUnavailable, err)
	}

	if err != nil {
		return nil, err
	}

	return out.(*Result), nil
}

// State 熔断器状态，未启用时为 closed.
func (g *Guarded) State() string {
	if g.breaker == nil {
		return gobreaker.StateClosed.String()
	}

	return g.breaker.State().String()
}
