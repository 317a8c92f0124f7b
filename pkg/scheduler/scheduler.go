// Package scheduler 包装 gocron/v2，记录每个维护任务的运行状态供 /admin/scheduler 查看.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
)

// ErrJobNotFound 任务名或 ID 不存在.
var ErrJobNotFound = errors.New("job not found")

// JobStatus 表示任务的状态类型.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled"
	StatusRunning   JobStatus = "running"
	StatusError     JobStatus = "error" // 最近一次执行失败，下次成功后恢复
)

// JobInfo 任务状态快照.
type JobInfo struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Schedule     string        `json:"schedule"`
	NextRun      time.Time     `json:"next_run"`
	LastRun      time.Time     `json:"last_run"`
	LastSuccess  time.Time     `json:"last_success,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
	Runs         int64         `json:"runs"`
	Status       JobStatus     `json:"status"`
	Error        string        `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Job 任务体. 返回的错误记录到任务状态.
type Job func(ctx context.Context) error

type entry struct {
	job  gocron.Job
	info JobInfo
}

// Scheduler 定时任务调度器. 同名任务不会并发执行.
type Scheduler struct {
	scheduler gocron.Scheduler
	mu        sync.RWMutex
	entries   map[string]*entry
	logger    zerolog.Logger
}

// NewScheduler 创建调度器，时间表按 UTC 解释.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		scheduler: s,
		entries:   make(map[string]*entry),
		logger:    log.Component("scheduler"),
	}, nil
}

// AddCron 添加一个基于 cron 表达式的定时任务.
func (s *Scheduler) AddCron(ctx context.Context, name, cronExpr string, job Job) error {
	return s.add(ctx, name, cronExpr, gocron.CronJob(cronExpr, false), job)
}

// AddInterval 添加一个固定间隔的定时任务.
func (s *Scheduler) AddInterval(ctx context.Context, name string, every time.Duration, job Job) error {
	if every <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}

	return s.add(ctx, name, "every "+every.String(), gocron.DurationJob(every), job)
}

func (s *Scheduler) add(ctx context.Context, name, schedule string, def gocron.JobDefinition, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	j, err := s.scheduler.NewJob(
		def,
		gocron.NewTask(s.wrap(name, job), ctx),
		gocron.WithName(name),
		// 上一轮未结束时跳过本轮
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	s.entries[name] = &entry{job: j, info: JobInfo{
		ID:        j.ID().String(),
		Name:      name,
		Schedule:  schedule,
		Status:    StatusScheduled,
		CreatedAt: time.Now(),
	}}

	s.logger.Info().Str("job", name).Str("schedule", schedule).Msg("job added")

	return nil
}

// wrap 记录执行状态，panic 视为失败.
func (s *Scheduler) wrap(name string, job Job) func(ctx context.Context) {
	return func(ctx context.Context) {
		start := time.Now()
		s.update(name, func(info *JobInfo) {
			info.Status = StatusRunning
			info.LastRun = start
		})

		var err error

		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in job: %v", r)
			}

			if err != nil {
				s.logger.Error().Err(err).Str("job", name).Msg("job failed")
			}

			s.update(name, func(info *JobInfo) {
				info.Runs++
				info.LastDuration = time.Since(start)

				if err != nil {
					info.Status = StatusError
					info.Error = err.Error()

					return
				}

				info.Status = StatusScheduled
				info.Error = ""
				info.LastSuccess = time.Now()
			})
		}()

		err = job(ctx)
	}
}

func (s *Scheduler) update(name string, fn func(*JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		fn(&e.info)
	}
}

// snapshot 复制状态并补上 gocron 计算的下次运行时间，调用方持有读锁.
func (e *entry) snapshot() JobInfo {
	info := e.info
	if next, err := e.job.NextRun(); err == nil {
		info.NextRun = next
	}

	return info
}

// RunNow 立即执行一次指定任务，不影响原有时间表.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	return e.job.RunNow()
}

// GetJobInfoByName 通过名称获取任务状态.
func (s *Scheduler) GetJobInfoByName(name string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	if !ok {
		return JobInfo{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	return e.snapshot(), nil
}

// GetJobInfos 返回全部任务状态，按名称排序.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.snapshot())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// RemoveJobByName 通过名称移除任务.
func (s *Scheduler) RemoveJobByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	delete(s.entries, name)
	s.logger.Info().Str("job", name).Msg("job removed")

	return s.scheduler.RemoveJob(e.job.ID())
}

// RemoveJob 通过 gocron 的任务 ID 移除任务.
func (s *Scheduler) RemoveJob(id uuid.UUID) error {
	s.mu.RLock()

	var name string

	for n, e := range s.entries {
		if e.job.ID() == id {
			name = n

			break
		}
	}
	s.mu.RUnlock()

	if name == "" {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	return s.RemoveJobByName(name)
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.GetJobInfos())).Msg("scheduler started")
	s.scheduler.Start()
}

// Stop 停止调度器并等待正在运行的任务结束.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("scheduler stopping")

	return s.scheduler.Shutdown()
}

// StopJobs 暂停全部任务，调度器本身保持运行，可再次 Start 恢复.
func (s *Scheduler) StopJobs() error {
	return s.scheduler.StopJobs()
}

// JobsWaitingInQueue 等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.scheduler.JobsWaitingInQueue()
}
