package store

import (
	"time"

	"gorm.io/datatypes"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
)

// Fields 一次写入要修改的列，键为列名.
type Fields map[string]any

// Merge 合并多组列，后者覆盖前者.
func (f Fields) Merge(others ...Fields) Fields {
	out := Fields{}
	for k, v := range f {
		out[k] = v
	}

	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}

	return out
}

// Failure 进入 failed 时写入的错误列.
func Failure(code media.ErrorCode, msg string, at time.Time) Fields {
	return Fields{
		"error_code":    code,
		"error_message": msg,
		"error_at":      at,
	}
}

// ClearError 离开 failed 时清理错误列.
func ClearError() Fields {
	return Fields{
		"error_code":    "",
		"error_message": "",
		"error_at":      nil,
	}
}

// Uploaded 传输完成：写入长期地址与校验和.
func Uploaded(url, checksum string, size int64) Fields {
	return Fields{
		"download_url": url,
		"checksum":     checksum,
		"size_bytes":   size,
		"progress":     100,
	}
}

// AnalysisResult 分析成功的写回.
func AnalysisResult(a model.Analysis, at time.Time) Fields {
	return Fields{
		"analysis_description":    a.Description,
		"analysis_tags":           datatypes.JSONSlice[string](a.Tags),
		"analysis_people":         datatypes.JSONSlice[string](a.People),
		"analysis_verdict":        a.Verdict,
		"analysis_safety_reason":  a.SafetyReason,
		"analysis_transcript":     a.Transcript,
		"analysis_location":       a.Location,
		"analysis_suggestion":     a.Suggestion,
		"analysis_is_user_edited": a.IsUserEdited,
		"analyzed_at":             at,
	}
}

// AnalysisEdit 人工修正标签、人物与结论，标记为用户编辑.
func AnalysisEdit(tags, people []string, verdict media.Verdict) Fields {
	f := Fields{"analysis_is_user_edited": true}

	if tags != nil {
		f["analysis_tags"] = datatypes.JSONSlice[string](media.NormalizeTags(tags))
	}

	if people != nil {
		f["analysis_people"] = datatypes.JSONSlice[string](media.NormalizePeople(people))
	}

	if verdict != "" {
		f["analysis_verdict"] = verdict
	}

	return f
}

// Moderation 管理员审核字段.
func Moderation(status media.AdminStatus, visibility media.Visibility) Fields {
	f := Fields{}

	if status != "" {
		f["admin_status"] = status
	}

	if visibility != "" {
		f["visibility"] = visibility
	}

	return f
}
