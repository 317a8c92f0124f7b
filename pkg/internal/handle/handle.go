// Package handle 提供 HTTP 请求处理器的实现.
package handle

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/analyzer"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/pipeline"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/service"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/uploader"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/middleware"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/rule"
)

var (
	errRouterNotRunning = errors.New("message router not running")
	errNotInitialized   = errors.New("client not initialized")
)

// errorResponse 统一错误响应.
type errorResponse struct {
	Error string          `json:"error"`
	Code  media.ErrorCode `json:"code,omitempty"`
	// 失败的上传仍返回记录，便于客户端展示重试入口
	Record any `json:"record,omitempty"`
}

// checkUser 取出认证中间件写入的身份.
func checkUser(c *gin.Context) (middleware.Identity, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}

	return id, ok
}

// statusOf 把领域错误映射为 HTTP 状态码与记录错误码.
func statusOf(err error) (int, media.ErrorCode) {
	var status *analyzer.StatusError

	switch {
	case rule.Errors(err) != nil:
		return http.StatusBadRequest, ""
	case errors.Is(err, service.ErrEmptyUpdate), errors.Is(err, service.ErrInvalidQuery):
		return http.StatusBadRequest, ""
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, ""
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, uploader.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, ""
	case errors.Is(err, uploader.ErrTooLarge), errors.Is(err, pipeline.ErrQuotaExceeded):
		return http.StatusRequestEntityTooLarge, ""
	case errors.Is(err, uploader.ErrSourceLost):
		return http.StatusGone, ""
	case errors.Is(err, uploader.ErrCanceled):
		return http.StatusConflict, media.CodeCanceled
	case errors.Is(err, uploader.ErrStalled):
		return http.StatusRequestTimeout, media.CodeStalled
	case errors.Is(err, pipeline.ErrMissingURL):
		return http.StatusUnprocessableEntity, media.CodeMissingURL
	case errors.Is(err, pipeline.ErrAlreadyProcessing), errors.Is(err, store.ErrStateConflict),
		errors.Is(err, uploader.ErrNotRetryable):
		return http.StatusConflict, ""
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, media.CodeTimeout
	case errors.As(err, &status), errors.Is(err, analyzer.ErrMalformed), errors.Is(err, analyzer.ErrUnavailable),
		errors.Is(err, analyzer.ErrTooLarge):
		return http.StatusBadGateway, media.CodeAnalysisFailed
	}

	return http.StatusInternalServerError, ""
}

// fail 写错误响应，5xx 记 error 日志.
func fail(c *gin.Context, msg string, err error) {
	failWith(c, msg, err, nil)
}

func failWith(c *gin.Context, msg string, err error, record any) {
	code, recCode := statusOf(err)

	l := log.Logger()
	if code >= http.StatusInternalServerError {
		l.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	} else {
		l.Debug().Err(err).Str("path", c.FullPath()).Msg(msg)
	}

	c.JSON(code, errorResponse{Error: err.Error(), Code: recCode, Record: record})
}

// bind 绑定并用 rule 校验请求体.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}

	if err := rule.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": rule.Errors(err)})
		return false
	}

	return true
}
