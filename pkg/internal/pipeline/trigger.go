package pipeline

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/queue"
)

// Trigger 监听记录变更，对新进入 pending 的记录发起分析.
type Trigger struct {
	*runner
	logger zerolog.Logger
}

// Handle 消息总线入口. 无法解析的消息直接确认丢弃.
func (t *Trigger) Handle(msg *message.Message) error {
	env, err := queue.ParseMediaChanged(msg)
	if err != nil {
		t.logger.Warn().Err(err).Str("uuid", msg.UUID).Msg("drop undecodable media change")

		return nil
	}

	return t.Process(msg.Context(), env.Payload)
}

// Process 处理一次记录变更. 只有写入后状态为 pending 的变更会触发分析；
// pending -> processing 的条件写入保证重复投递最多调用一次模型.
// 返回的错误只代表需要重投的基础设施故障，分析失败已写入记录.
func (t *Trigger) Process(ctx context.Context, p queue.MediaChangedPayload) error {
	if p.After == nil || p.After.Status != media.StatusPending {
		return nil
	}

	log := t.logger.With().Str("record_id", p.RecordID).Str("owner", p.OwnerID).Logger()
	pending := store.Guard{From: []media.Status{media.StatusPending}}

	if p.After.DownloadURL == "" {
		_, err := t.store.Transition(ctx, p.RecordID, pending, media.StatusFailed,
			store.Failure(media.CodeMissingURL, "media has no download url", t.store.Now()))
		if err != nil && !isMovedOn(err) {
			return err
		}

		log.Warn().Str("code", string(media.CodeMissingURL)).Msg("pending record without download url")

		return nil
	}

	rec, err := t.store.Transition(ctx, p.RecordID, pending, media.StatusProcessing, store.ClearError())
	if isMovedOn(err) {
		log.Debug().Msg("record already claimed, skipping")

		return nil
	}

	if err != nil {
		return err
	}

	_ = t.run(ctx, rec, false)

	return nil
}

func isMovedOn(err error) bool {
	return errors.Is(err, store.ErrStateConflict) || errors.Is(err, store.ErrNotFound)
}
