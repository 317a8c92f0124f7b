package queue

// 主题命名规范：sm.<域>.<动作>，保持稳定且向后兼容.
const (
	// TopicMediaChanged 媒体记录的任意一次已提交写入（创建、状态迁移、字段更新、删除）.
	TopicMediaChanged = "sm.media.changed"
	// TopicQuotaChanged 配额对账器应用了一次增量.
	TopicQuotaChanged = "sm.quota.changed"
)

// AllTopics 全部主题，用于 CLI 列表与 JetStream 预建.
var AllTopics = []string{TopicMediaChanged, TopicQuotaChanged}
