// Package pipeline 实现上传之后的服务端流程：
// 配额预检、事件驱动的分析触发、手动重新分析、卡死任务回收与配额对账.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/cache"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/analyzer"
	mqc "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/mq"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/queue"
)

var (
	// ErrQuotaExceeded 剩余配额不足.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrMissingURL 记录没有可供分析的下载地址.
	ErrMissingURL = errors.New("media has no download url")
	// ErrAlreadyProcessing 分析正在进行或上传尚未完成.
	ErrAlreadyProcessing = errors.New("analysis already in progress")
)

// 消费者分组名.
const (
	HandlerTrigger    = "pipeline-trigger"
	HandlerReconciler = "quota-reconciler"
)

// Deps 流水线依赖.
type Deps struct {
	Store     *store.Store
	Analyzer  analyzer.Analyzer
	Cache     *cache.Cache
	Publisher message.Publisher
	Pipeline  configs.PipelineConfig
	Quota     configs.QuotaConfig
}

// Pipeline 汇总流水线各组件.
type Pipeline struct {
	Guard      *QuotaGuard
	Trigger    *Trigger
	Reanalyzer *Reanalyzer
	Watchdog   *Watchdog
	Reconciler *QuotaReconciler
}

// New 组装流水线.
func New(d Deps) *Pipeline {
	r := &runner{
		store:    d.Store,
		analyzer: d.Analyzer,
		cfg:      d.Pipeline,
		logger:   nlog.Component("analysis"),
	}

	guard := NewQuotaGuard(d.Store, d.Cache, d.Quota.ProfileCacheTTL)

	return &Pipeline{
		Guard:      guard,
		Trigger:    &Trigger{runner: r, logger: nlog.Component("trigger")},
		Reanalyzer: &Reanalyzer{runner: r},
		Watchdog:   NewWatchdog(d.Store, d.Pipeline),
		Reconciler: NewQuotaReconciler(d.Store, guard, d.Publisher),
	}
}

// Register 把事件驱动的组件注册到消息总线. group 为空时直接使用组件名，
// 多实例部署共用同一个 group，每条事件只被其中一个实例处理.
func (p *Pipeline) Register(bus *mqc.Client, group string) error {
	name := func(h string) string {
		if group == "" {
			return h
		}

		return group + "-" + h
	}

	if err := bus.Handle(name(HandlerTrigger), queue.TopicMediaChanged, p.Trigger.Handle); err != nil {
		return fmt.Errorf("register trigger: %w", err)
	}

	if err := bus.Handle(name(HandlerReconciler), queue.TopicMediaChanged, p.Reconciler.Handle); err != nil {
		return fmt.Errorf("register reconciler: %w", err)
	}

	return nil
}
