package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/service"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/types"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/rule"
)

// doAdmin 管理端的统一封装，角色由路由上的 RequireAdmin 保证.
func doAdmin(c *gin.Context, errLogMsg string, fn func(svc *service.AdminService) (any, error)) {
	if _, ok := checkUser(c); !ok {
		return
	}

	svc, err := service.NewAdminService(c.Request.Context())
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

// AdminListMedia 跨用户列出记录.
//
//	@Summary	全部媒体
//	@Tags		管理
//	@Produce	json
//	@Param		owner	query		string	false	"按用户过滤"
//	@Param		status	query		string	false	"按状态过滤"
//	@Param		limit	query		int		false	"每页数量"
//	@Param		offset	query		int		false	"偏移"
//	@Success	200		{object}	types.ListMediaResponse
//	@Failure	403		{object}	map[string]string
//	@Router		/api/v1/admin/media [get]
func AdminListMedia(c *gin.Context) {
	var q types.ListMediaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	if err := rule.ValidateStruct(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": rule.Errors(err)})
		return
	}

	doAdmin(c, "admin list media failed", func(svc *service.AdminService) (any, error) {
		return svc.List(c.Request.Context(), q.Owner, q)
	})
}

// AdminModerate 设置审核状态与可见性.
//
//	@Summary	审核媒体
//	@Tags		管理
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"记录 ID"
//	@Param		body	body		types.ModerationRequest	true	"审核内容"
//	@Success	200		{object}	types.MediaView
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/admin/media/{id}/moderation [patch]
func AdminModerate(c *gin.Context) {
	var req types.ModerationRequest
	if !bind(c, &req) {
		return
	}

	doAdmin(c, "moderation failed", func(svc *service.AdminService) (any, error) {
		return svc.Moderate(c.Request.Context(), c.Param("id"), req)
	})
}

// AdminReanalyze 重新分析任意用户的记录.
//
//	@Summary	管理员重新分析
//	@Tags		管理
//	@Produce	json
//	@Param		id	path		string	true	"记录 ID"
//	@Success	200	{object}	types.MediaView
//	@Failure	409	{object}	map[string]string
//	@Failure	502	{object}	map[string]string
//	@Router		/api/v1/admin/media/{id}/reanalyze [post]
func AdminReanalyze(c *gin.Context) {
	doAdmin(c, "admin reanalyze failed", func(svc *service.AdminService) (any, error) {
		return svc.Reanalyze(c.Request.Context(), "", c.Param("id"))
	})
}

// AdminSetQuota 设置用户配额.
//
//	@Summary	设置配额
//	@Tags		管理
//	@Accept		json
//	@Produce	json
//	@Param		uid		path		string					true	"用户"
//	@Param		body	body		types.SetQuotaRequest	true	"配额字节数"
//	@Success	200		{object}	types.QuotaResponse
//	@Router		/api/v1/admin/users/{uid}/quota [put]
func AdminSetQuota(c *gin.Context) {
	var req types.SetQuotaRequest
	if !bind(c, &req) {
		return
	}

	doAdmin(c, "set quota failed", func(svc *service.AdminService) (any, error) {
		return svc.SetQuota(c.Request.Context(), c.Param("uid"), req.QuotaBytes)
	})
}

// AdminRecount 按实际记录重算已用字节.
//
//	@Summary	重算已用配额
//	@Tags		管理
//	@Produce	json
//	@Param		uid	path		string	true	"用户"
//	@Success	200	{object}	types.QuotaResponse
//	@Router		/api/v1/admin/users/{uid}/recount [post]
func AdminRecount(c *gin.Context) {
	doAdmin(c, "recount failed", func(svc *service.AdminService) (any, error) {
		return svc.Recount(c.Request.Context(), c.Param("uid"))
	})
}

// AdminSweep 立即执行一次回收.
//
//	@Summary	立即回收卡住的记录
//	@Tags		管理
//	@Produce	json
//	@Success	200	{object}	types.SweepResponse
//	@Router		/api/v1/admin/watchdog/sweep [post]
func AdminSweep(c *gin.Context) {
	doAdmin(c, "sweep failed", func(svc *service.AdminService) (any, error) {
		return svc.Sweep(c.Request.Context())
	})
}
