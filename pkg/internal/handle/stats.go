package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/service"
)

// doStats 是一个通用封装：
//  1. 统一抽取用户
//  2. 创建 StatsService
//  3. 统一错误处理与 JSON 输出
func doStats(c *gin.Context, errLogMsg string, fn func(svc *service.StatsService) (any, error)) {
	if _, ok := checkUser(c); !ok {
		return
	}

	svc, err := service.NewStatsService(c.Request.Context())
	if err != nil {
		fail(c, errLogMsg, err)
		return
	}

	data, err := fn(svc)
	if err != nil {
		fail(c, errLogMsg, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// GetMediaStats 按状态与大类汇总. 响应由缓存中间件缓存.
//
//	@Summary	媒体统计汇总
//	@Tags		管理
//	@Produce	json
//	@Param		owner	query		string	false	"只统计该用户"
//	@Success	200		{object}	types.StatsSummary
//	@Failure	500		{object}	map[string]string
//	@Router		/api/v1/admin/stats [get]
func GetMediaStats(c *gin.Context) {
	doStats(c, "media stats failed", func(svc *service.StatsService) (any, error) {
		return svc.Summary(c.Request.Context(), c.Query("owner"))
	})
}
