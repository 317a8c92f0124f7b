package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
)

// MediaRecord 媒体记录：一个上传文件的完整生命周期，从传输到 AI 分析.
type MediaRecord struct {
	// ULID，跨所有用户唯一且按时间有序
	ID      string `gorm:"primaryKey;size:26"                                      json:"id"`
	OwnerID string `gorm:"size:255;not null;index:idx_media_owner_created,priority:1" json:"ownerId"`
	// 对象键 media/{owner}/{id}/{file_name}
	StoragePath string  `gorm:"size:1024;not null" json:"storagePath"`
	FileName    string  `gorm:"size:512"           json:"fileName"`
	DownloadURL *string `gorm:"size:2048"          json:"downloadURL"`
	MimeType    string  `gorm:"size:255;index"     json:"mimeType"`
	SizeBytes   int64   `gorm:"not null;default:0" json:"sizeBytes"`
	// 上传字节的 xxhash64 十六进制
	Checksum string `gorm:"size:32" json:"checksum,omitempty"`

	Status   media.Status `gorm:"size:16;not null;index:idx_media_status_updated,priority:1" json:"status"`
	Progress int          `gorm:"not null;default:0"                                         json:"progress"`

	// 仅 failed 状态下有值
	ErrorCode    media.ErrorCode `gorm:"size:64"   json:"-"`
	ErrorMessage string          `gorm:"type:text" json:"-"`
	ErrorAt      *time.Time      `json:"-"`

	Analysis Analysis `gorm:"embedded;embeddedPrefix:analysis_" json:"-"`

	AdminStatus media.AdminStatus `gorm:"size:16;not null;default:pending" json:"adminStatus"`
	Visibility  media.Visibility  `gorm:"size:16;not null;default:private" json:"visibility"`

	CreatedAt  time.Time      `gorm:"index:idx_media_owner_created,priority:2"  json:"createdAt"`
	UpdatedAt  time.Time      `gorm:"index:idx_media_status_updated,priority:2" json:"updatedAt"`
	AnalyzedAt *time.Time     `json:"analyzedAt,omitempty"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Analysis AI 分析结果，Verdict 非空即视为存在.
type Analysis struct {
	Description  string                      `gorm:"type:text"`
	Tags         datatypes.JSONSlice[string] `gorm:"type:json"`
	People       datatypes.JSONSlice[string] `gorm:"type:json"`
	Verdict      media.Verdict               `gorm:"size:16"`
	SafetyReason string                      `gorm:"type:text"`
	Transcript   string                      `gorm:"type:text"`
	Location     string                      `gorm:"size:512"`
	Suggestion   string                      `gorm:"type:text"`
	IsUserEdited bool                        `gorm:"not null;default:false"`
}

// TableName 表名.
func (MediaRecord) TableName() string {
	return "media_records"
}

// HasAnalysis 是否有过成功的分析结果.
func (r *MediaRecord) HasAnalysis() bool {
	return r.Analysis.Verdict != ""
}

// Err 返回结构化错误，非失败状态为 nil.
func (r *MediaRecord) Err() *media.RecordError {
	if r.ErrorCode == "" {
		return nil
	}

	e := &media.RecordError{Code: r.ErrorCode, Message: r.ErrorMessage}
	if r.ErrorAt != nil {
		e.At = *r.ErrorAt
	}

	return e
}

// URL 返回下载地址，未完成传输时为空串.
func (r *MediaRecord) URL() string {
	if r.DownloadURL == nil {
		return ""
	}

	return *r.DownloadURL
}

// Category 媒体大类.
func (r *MediaRecord) Category() media.Category {
	c, _ := media.CategoryOf(r.MimeType)

	return c
}
