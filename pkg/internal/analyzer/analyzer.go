// Package analyzer 调用外部多模态模型为媒体生成描述、标签、审核结论与实体.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
)

var (
	// ErrMalformed 模型输出无法解析或未通过校验.
	ErrMalformed = errors.New("analyzer: malformed output")
	// ErrUnavailable 熔断打开或半开请求已满.
	ErrUnavailable = errors.New("analyzer: temporarily unavailable")
	// ErrTooLarge 媒体超过内联上限.
	ErrTooLarge = errors.New("analyzer: media too large for inline analysis")
)

// Request 一次分析请求.
type Request struct {
	RecordID    string
	OwnerID     string
	ObjectKey   string
	DownloadURL string
	MimeType    string
	// KnownPeople 用户以往记录中出现过的人名，用于个性化识别
	KnownPeople []string
}

// Moderation 内容审核.
type Moderation struct {
	Verdict string   `json:"verdict" rule:"required"`
	Reasons []string `json:"reasons"`
}

// Entities 抽取出的实体.
type Entities struct {
	People   []string `json:"people"`
	Location string   `json:"location"`
	Text     string   `json:"text"`
}

// Result 模型输出.
type Result struct {
	Caption    string     `json:"caption"           rule:"required"`
	Tags       []string   `json:"tags"              rule:"min=1,dive,required"`
	Moderation Moderation `json:"moderation"`
	Entities   Entities   `json:"extractedEntities"`
	Suggestion string     `json:"suggestion"`
}

// Analysis 转换为记录上的分析字段：标签规范化，结论宽松解析.
func (r *Result) Analysis() model.Analysis {
	verdict := media.ParseVerdict(r.Moderation.Verdict)

	return model.Analysis{
		Description:  r.Caption,
		Tags:         media.NormalizeTags(r.Tags),
		People:       media.NormalizePeople(r.Entities.People),
		Verdict:      verdict,
		SafetyReason: media.SafetyReason(verdict, r.Moderation.Reasons),
		Transcript:   r.Entities.Text,
		Location:     r.Entities.Location,
		Suggestion:   r.Suggestion,
	}
}

// Analyzer 分析媒体.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Result, error)
}

// ObjectReader 从对象存储读取媒体字节.
type ObjectReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, int64, string, error)
}

// StatusError 模型服务返回非 2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Code == http.StatusTooManyRequests {
		return fmt.Sprintf("analyzer: rate limited (429): %s", e.Body)
	}

	return fmt.Sprintf("analyzer: status %d: %s", e.Code, e.Body)
}
