// Package storetest 为依赖 store 的测试提供内存 SQLite 仓库、可控时钟与记录型发布者.
package storetest

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/queue"
)

// Clock 可手动推进的时钟.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock 从 t 开始.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t.UTC()}
}

// Now 当前时间.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance 推进 d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// Recorder 记录所有发布的消息，可选地转发给下游（例如同步调用的 handler）.
type Recorder struct {
	mu   sync.Mutex
	msgs map[string][]*message.Message
	// Forward 非空时每条消息发布后同步调用
	Forward func(topic string, msg *message.Message)
}

// NewRecorder 创建 Recorder.
func NewRecorder() *Recorder {
	return &Recorder{msgs: map[string][]*message.Message{}}
}

// Publish 实现 message.Publisher.
func (r *Recorder) Publish(topic string, msgs ...*message.Message) error {
	r.mu.Lock()
	r.msgs[topic] = append(r.msgs[topic], msgs...)
	forward := r.Forward
	r.mu.Unlock()

	if forward != nil {
		for _, m := range msgs {
			forward(topic, m)
		}
	}

	return nil
}

// Close 实现 message.Publisher.
func (r *Recorder) Close() error { return nil }

// Messages 返回某主题上已发布的消息.
func (r *Recorder) Messages(topic string) []*message.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*message.Message(nil), r.msgs[topic]...)
}

// Changes 解析已发布的 sm.media.changed.
func (r *Recorder) Changes(t testing.TB) []queue.MediaChangedPayload {
	t.Helper()

	var out []queue.MediaChangedPayload

	for _, m := range r.Messages(queue.TopicMediaChanged) {
		env, err := queue.ParseMediaChanged(m)
		require.NoError(t, err)

		out = append(out, env.Payload)
	}

	return out
}

// Reset 清空记录.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs = map[string][]*message.Message{}
}

// OpenDB 打开独立的内存 SQLite 并迁移全部模型.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.All()...))

	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// Open 创建基于内存 SQLite 的仓库，返回仓库、记录型发布者与时钟.
func Open(t testing.TB, opts ...store.Option) (*store.Store, *Recorder, *Clock) {
	t.Helper()

	rec := NewRecorder()
	clock := NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	opts = append([]store.Option{store.WithClock(clock.Now)}, opts...)

	return store.New(OpenDB(t), rec, opts...), rec, clock
}
