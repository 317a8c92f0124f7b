package media

import "time"

// ErrorCode 记录失败时写入的机器可读错误码.
type ErrorCode string

const (
	// 传输阶段.
	CodeCanceled ErrorCode = "storage/canceled"
	CodeStalled  ErrorCode = "storage/stalled"
	CodeStorage  ErrorCode = "storage/unknown"

	// 校验与分析阶段.
	CodeMissingURL     ErrorCode = "missing_url"
	CodeAnalysisFailed ErrorCode = "analysis_failed"
	CodeTimeout        ErrorCode = "timeout"
)

// Transfer 是否为传输阶段的错误码.
func (c ErrorCode) Transfer() bool {
	switch c {
	case CodeCanceled, CodeStalled, CodeStorage:
		return true
	}

	return false
}

// RecordError 失败记录上的结构化错误.
type RecordError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	At      time.Time `json:"timestamp"`
}

func (e *RecordError) Error() string {
	return string(e.Code) + ": " + e.Message
}
