// Package types 定义 HTTP 接口的请求与响应结构.
package types

import (
	"time"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/uploader"
)

// AnalysisView AI 分析结果.
type AnalysisView struct {
	Description  string        `json:"description"`
	Tags         []string      `json:"tags"`
	People       []string      `json:"people"`
	Verdict      media.Verdict `json:"verdict"`
	SafetyReason string        `json:"safetyReason,omitempty"`
	Transcript   string        `json:"transcript,omitempty"`
	Location     string        `json:"location,omitempty"`
	Suggestion   string        `json:"suggestion,omitempty"`
	IsUserEdited bool          `json:"isUserEdited"`
}

// MediaView 返回给客户端的媒体记录，已叠加进行中上传的进度.
type MediaView struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"ownerId"`
	FileName    string             `json:"fileName"`
	MimeType    string             `json:"mimeType"`
	Category    media.Category     `json:"category"`
	SizeBytes   int64              `json:"sizeBytes"`
	Checksum    string             `json:"checksum,omitempty"`
	DownloadURL string             `json:"downloadURL,omitempty"`
	PreviewURL  string             `json:"previewURL,omitempty"`
	Status      media.Status       `json:"status"`
	Progress    int                `json:"progress"`
	Live        bool               `json:"live"`
	Error       *media.RecordError `json:"error,omitempty"`
	Analysis    *AnalysisView      `json:"analysis,omitempty"`
	AdminStatus media.AdminStatus  `json:"adminStatus"`
	Visibility  media.Visibility   `json:"visibility"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	AnalyzedAt  *time.Time         `json:"analyzedAt,omitempty"`
}

// NewMediaView 由叠加视图构造响应.
func NewMediaView(v uploader.View) MediaView {
	r := v.Record

	out := MediaView{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		FileName:    r.FileName,
		MimeType:    r.MimeType,
		Category:    r.Category(),
		SizeBytes:   r.SizeBytes,
		Checksum:    r.Checksum,
		DownloadURL: r.URL(),
		PreviewURL:  v.PreviewURL,
		Status:      r.Status,
		Progress:    r.Progress,
		Live:        v.Live,
		Error:       r.Err(),
		AdminStatus: r.AdminStatus,
		Visibility:  r.Visibility,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		AnalyzedAt:  r.AnalyzedAt,
	}

	if r.HasAnalysis() {
		out.Analysis = newAnalysisView(r.Analysis)
	}

	return out
}

// RecordView 不经叠加直接转换持久化记录.
func RecordView(r *model.MediaRecord) MediaView {
	return NewMediaView(uploader.View{Record: *r})
}

func newAnalysisView(a model.Analysis) *AnalysisView {
	return &AnalysisView{
		Description:  a.Description,
		Tags:         nonNil(a.Tags),
		People:       nonNil(a.People),
		Verdict:      a.Verdict,
		SafetyReason: a.SafetyReason,
		Transcript:   a.Transcript,
		Location:     a.Location,
		Suggestion:   a.Suggestion,
		IsUserEdited: a.IsUserEdited,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

// ListMediaQuery 列表查询参数.
type ListMediaQuery struct {
	Status string `form:"status" json:"status" rule:"omitempty,oneof=uploading pending processing ready failed"`
	Owner  string `form:"owner"  json:"owner"  rule:"omitempty,max=255"`
	Limit  int    `form:"limit"  json:"limit"  rule:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" json:"offset" rule:"omitempty,min=0"`
}

// ListMediaResponse 列表响应.
type ListMediaResponse struct {
	Items  []MediaView `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// UploadResponse 上传响应. 失败的传输同样返回记录，错误在 record.error 中.
type UploadResponse struct {
	Record MediaView `json:"record"`
}

// AnalysisEditRequest 人工修正. 省略的字段保持不变.
type AnalysisEditRequest struct {
	Tags    []string `json:"tags"    rule:"omitempty,max=50,dive,max=64"`
	People  []string `json:"people"  rule:"omitempty,max=100,dive,max=128"`
	Verdict string   `json:"verdict" rule:"omitempty,verdict"`
}

// RenamePersonRequest 全局重命名人物.
type RenamePersonRequest struct {
	From string `json:"from" rule:"required,max=128"`
	To   string `json:"to"   rule:"required,max=128"`
}

// RenamePersonResponse 重命名结果.
type RenamePersonResponse struct {
	Updated int `json:"updated"`
}

// MeResponse 当前用户档案.
type MeResponse struct {
	UID            string     `json:"uid"`
	Email          string     `json:"email,omitempty"`
	Role           media.Role `json:"role"`
	QuotaBytes     int64      `json:"quotaBytes"`
	UsedBytes      int64      `json:"usedBytes"`
	RemainingBytes int64      `json:"remainingBytes"`
}
