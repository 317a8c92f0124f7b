// Package realtime 把记录变更与配额变更按用户推送给订阅者（SSE）.
package realtime

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	mqc "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/mq"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/queue"
)

// ErrLagged 订阅者消费过慢，期间的事件已被丢弃，应重新拉取列表.
var ErrLagged = errors.New("subscriber lagged behind, events were dropped")

// AllOwners 管理员订阅全部用户.
const AllOwners = "*"

// DefaultBuffer 每个订阅者的事件缓冲.
const DefaultBuffer = 64

// EventKind 事件类型，同时作为 SSE 事件名.
type EventKind string

const (
	EventChange EventKind = "change"
	EventQuota  EventKind = "quota"
)

// Event 推送给订阅者的事件.
type Event struct {
	Kind    EventKind                  `json:"kind"`
	OwnerID string                     `json:"ownerId"`
	Change  *queue.MediaChangedPayload `json:"change,omitempty"`
	Quota   *queue.QuotaChangedPayload `json:"quota,omitempty"`
	At      time.Time                  `json:"at"`
}

// Subscription 一个订阅. 数据与错误走不同的通道.
type Subscription struct {
	hub     *Hub
	owner   string
	changes chan Event
	errs    chan error
	lagged  bool
	closed  bool
}

// Owner 订阅的用户，管理员为 AllOwners.
func (s *Subscription) Owner() string { return s.owner }

// Changes 事件通道，订阅关闭后被关闭.
func (s *Subscription) Changes() <-chan Event { return s.changes }

// Errors 错误通道，订阅关闭后被关闭.
func (s *Subscription) Errors() <-chan error { return s.errs }

// Close 取消订阅，可重复调用.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub 按用户分发事件. 发送不阻塞：缓冲满的订阅者收到 ErrLagged.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	logger zerolog.Logger
}

// NewHub 创建 Hub，buffer <= 0 时使用 DefaultBuffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: nlog.Component("realtime"),
	}
}

// Subscribe 订阅 owner 的事件.
func (h *Hub) Subscribe(owner string) *Subscription {
	s := &Subscription{
		hub:     h,
		owner:   owner,
		changes: make(chan Event, h.buffer),
		errs:    make(chan error, 1),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[owner]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[owner] = set
	}

	set[s] = struct{}{}

	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true

	if set, ok := h.subs[s.owner]; ok {
		delete(set, s)

		if len(set) == 0 {
			delete(h.subs, s.owner)
		}
	}

	close(s.changes)
	close(s.errs)
}

// Count 当前订阅数.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.subs {
		n += len(set)
	}

	return n
}

// Publish 把事件分发给 ev.OwnerID 与 AllOwners 的订阅者.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	owners := []string{ev.OwnerID}
	if ev.OwnerID != AllOwners {
		owners = append(owners, AllOwners)
	}

	for _, owner := range owners {
		for s := range h.subs[owner] {
			h.deliver(s, ev)
		}
	}
}

// deliver 持有 h.mu.
func (h *Hub) deliver(s *Subscription, ev Event) {
	select {
	case s.changes <- ev:
		s.lagged = false
	default:
		if s.lagged {
			return
		}

		s.lagged = true

		select {
		case s.errs <- ErrLagged:
		default:
		}

		h.logger.Warn().Str("owner", s.owner).Str("kind", string(ev.Kind)).Msg("subscriber lagged, dropping events")
	}
}

// Close 关闭全部订阅.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*Subscription, 0)

	for _, set := range h.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range all {
		s.Close()
	}
}

// HandleMediaChanged sm.media.changed 消费入口.
func (h *Hub) HandleMediaChanged(msg *message.Message) error {
	env, err := queue.ParseMediaChanged(msg)
	if err != nil {
		h.logger.Warn().Err(err).Str("uuid", msg.UUID).Msg("drop undecodable media change")

		return nil
	}

	p := env.Payload
	h.Publish(Event{Kind: EventChange, OwnerID: p.OwnerID, Change: &p, At: env.Header.OccurredAt})

	return nil
}

// HandleQuotaChanged sm.quota.changed 消费入口.
func (h *Hub) HandleQuotaChanged(msg *message.Message) error {
	env, err := queue.ParseQuotaChanged(msg)
	if err != nil {
		h.logger.Warn().Err(err).Str("uuid", msg.UUID).Msg("drop undecodable quota change")

		return nil
	}

	p := env.Payload
	h.Publish(Event{Kind: EventQuota, OwnerID: p.OwnerID, Quota: &p, At: env.Header.OccurredAt})

	return nil
}

// Register 注册到消息总线. 每个实例都要收到全部事件，所以分组名带上实例标识.
func (h *Hub) Register(bus *mqc.Client, instance string) error {
	if err := bus.Handle("realtime-media-"+instance, queue.TopicMediaChanged, h.HandleMediaChanged); err != nil {
		return fmt.Errorf("register realtime media: %w", err)
	}

	if err := bus.Handle("realtime-quota-"+instance, queue.TopicQuotaChanged, h.HandleQuotaChanged); err != nil {
		return fmt.Errorf("register realtime quota: %w", err)
	}

	return nil
}
