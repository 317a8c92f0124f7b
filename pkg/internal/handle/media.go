package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/service"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/types"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/uploader"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/rule"
)

// doMedia 统一抽取身份、创建 MediaService 并处理错误.
func doMedia(c *gin.Context, errLogMsg string, fn func(svc *service.MediaService, owner string) (any, error)) {
	id, ok := checkUser(c)
	if !ok {
		return
	}

	svc, err := service.NewMediaService(c.Request.Context())
	if err != nil {
		fail(c, errLogMsg, err)
		return
	}

	data, err := fn(svc, id.UID)
	if err != nil {
		fail(c, errLogMsg, err)
		return
	}

	if data == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, data)
}

// Ping 认证后的身份回显，不访问数据存储.
//
//	@Summary	身份回显
//	@Tags		用户
//	@Produce	json
//	@Success	200	{object}	middleware.Identity
//	@Failure	401	{object}	map[string]string
//	@Router		/api/v1/ping [get]
func Ping(c *gin.Context) {
	id, ok := checkUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, id)
}

// Me 当前用户档案与配额.
//
//	@Summary	当前用户
//	@Tags		用户
//	@Produce	json
//	@Success	200	{object}	types.MeResponse
//	@Failure	401	{object}	map[string]string
//	@Router		/api/v1/me [get]
func Me(c *gin.Context) {
	id, ok := checkUser(c)
	if !ok {
		return
	}

	svc, err := service.NewProfileService(c.Request.Context())
	if err != nil {
		fail(c, "profile service", err)
		return
	}

	me, err := svc.Me(c.Request.Context(), id.UID, id.Email, id.Role)
	if err != nil {
		fail(c, "load profile failed", err)
		return
	}

	c.JSON(http.StatusOK, me)
}

// UploadMedia 通过上传协调器同步上传一个文件.
//
//	@Summary		上传媒体
//	@Description	multipart 表单字段 file；可选 mime 覆盖声明的类型. 传输完成后记录进入 pending 并自动触发分析
//	@Tags			媒体
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"媒体文件"
//	@Param			mime	formData	string	false	"声明的 MIME 类型"
//	@Success		200		{object}	types.UploadResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		409		{object}	map[string]any	"传输被取消"
//	@Failure		413		{object}	map[string]string	"超过大小限制或配额"
//	@Failure		415		{object}	map[string]string	"不支持的媒体类型"
//	@Router			/api/v1/media [post]
func UploadMedia(c *gin.Context) {
	id, ok := checkUser(c)
	if !ok {
		return
	}

	if limit := configs.GetConfig().Server.MaxUploadBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	svc, err := service.NewMediaService(c.Request.Context())
	if err != nil {
		fail(c, "media service", err)
		return
	}

	v, err := svc.Upload(c.Request.Context(), id.UID, uploader.NewMultipartSource(fh, c.PostForm("mime")))
	if err != nil {
		var rec any
		if v != nil {
			rec = v
		}

		failWith(c, "upload failed", err, rec)

		return
	}

	c.JSON(http.StatusOK, types.UploadResponse{Record: *v})
}

// ListMedia 当前用户的媒体，按创建时间倒序.
//
//	@Summary	媒体列表
//	@Tags		媒体
//	@Produce	json
//	@Param		status	query		string	false	"按状态过滤"
//	@Param		limit	query		int		false	"每页数量（默认 50，最大 200）"
//	@Param		offset	query		int		false	"偏移"
//	@Success	200		{object}	types.ListMediaResponse
//	@Failure	400		{object}	map[string]string
//	@Router		/api/v1/media [get]
func ListMedia(c *gin.Context) {
	var q types.ListMediaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	if err := rule.ValidateStruct(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": rule.Errors(err)})
		return
	}

	doMedia(c, "list media failed", func(svc *service.MediaService, owner string) (any, error) {
		return svc.List(c.Request.Context(), owner, q)
	})
}

// GetMedia 读取一条记录.
//
//	@Summary	媒体详情
//	@Tags		媒体
//	@Produce	json
//	@Param		id	path		string	true	"记录 ID"
//	@Success	200	{object}	types.MediaView
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/media/{id} [get]
func GetMedia(c *gin.Context) {
	doMedia(c, "get media failed", func(svc *service.MediaService, owner string) (any, error) {
		return svc.Get(c.Request.Context(), owner, c.Param("id"))
	})
}

// DeleteMedia 删除记录与对象.
//
//	@Summary	删除媒体
//	@Tags		媒体
//	@Param		id	path	string	true	"记录 ID"
//	@Success	204
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/media/{id} [delete]
func DeleteMedia(c *gin.Context) {
	doMedia(c, "delete media failed", func(svc *service.MediaService, owner string) (any, error) {
		return nil, svc.Delete(c.Request.Context(), owner, c.Param("id"))
	})
}

// CancelUpload 取消进行中的上传.
//
//	@Summary	取消上传
//	@Tags		媒体
//	@Produce	json
//	@Param		id	path		string	true	"记录 ID"
//	@Success	200	{object}	types.MediaView
//	@Failure	409	{object}	map[string]string	"没有进行中的传输"
//	@Router		/api/v1/media/{id}/cancel [post]
func CancelUpload(c *gin.Context) {
	doMedia(c, "cancel upload failed", func(svc *service.MediaService, owner string) (any, error) {
		return svc.Cancel(c.Request.Context(), owner, c.Param("id"))
	})
}

// RetryUpload 重试失败的上传.
//
//	@Summary	重试上传
//	@Tags		媒体
//	@Produce	json
//	@Param		id	path		string	true	"记录 ID"
//	@Success	200	{object}	types.MediaView
//	@Failure	409	{object}	map[string]string	"记录不是 failed"
//	@Failure	410	{object}	map[string]string	"原始文件已不可用，需要重新选择"
//	@Router		/api/v1/media/{id}/retry [post]
func RetryUpload(c *gin.Context) {
	doMedia(c, "retry upload failed", func(svc *service.MediaService, owner string) (any, error) {
		return svc.Retry(c.Request.Context(), owner, c.Param("id"))
	})
}

// ReanalyzeMedia 同步重新分析，失败原因直接返回.
//
//	@Summary	重新分析
//	@Tags		媒体
//	@Produce	json
//	@Param		id	path		string	true	"记录 ID"
//	@Success	200	{object}	types.MediaView
//	@Failure	409	{object}	map[string]string	"分析进行中"
//	@Failure	422	{object}	map[string]string	"缺少下载地址"
//	@Failure	502	{object}	map[string]string	"模型调用失败"
//	@Router		/api/v1/media/{id}/reanalyze [post]
func ReanalyzeMedia(c *gin.Context) {
	doMedia(c, "reanalyze failed", func(svc *service.MediaService, owner string) (any, error) {
		return svc.Reanalyze(c.Request.Context(), owner, c.Param("id"))
	})
}

// EditAnalysis 人工修正标签、人物与结论.
//
//	@Summary	修正分析结果
//	@Tags		媒体
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"记录 ID"
//	@Param		body	body		types.AnalysisEditRequest	true	"修正内容"
//	@Success	200		{object}	types.MediaView
//	@Failure	400		{object}	map[string]string
//	@Failure	409		{object}	map[string]string	"尚无分析结果"
//	@Router		/api/v1/media/{id}/analysis [patch]
func EditAnalysis(c *gin.Context) {
	var req types.AnalysisEditRequest
	if !bind(c, &req) {
		return
	}

	doMedia(c, "edit analysis failed", func(svc *service.MediaService, owner string) (any, error) {
		return svc.EditAnalysis(c.Request.Context(), owner, c.Param("id"), req)
	})
}

// RenamePerson 在当前用户全部记录中重命名人物.
//
//	@Summary	重命名人物
//	@Tags		媒体
//	@Accept		json
//	@Produce	json
//	@Param		body	body		types.RenamePersonRequest	true	"原名与新名"
//	@Success	200		{object}	types.RenamePersonResponse
//	@Failure	400		{object}	map[string]string
//	@Router		/api/v1/media/people/rename [post]
func RenamePerson(c *gin.Context) {
	var req types.RenamePersonRequest
	if !bind(c, &req) {
		return
	}

	doMedia(c, "rename person failed", func(svc *service.MediaService, owner string) (any, error) {
		n, err := svc.RenamePerson(c.Request.Context(), owner, req)
		if err != nil {
			return nil, err
		}

		return types.RenamePersonResponse{Updated: n}, nil
	})
}
