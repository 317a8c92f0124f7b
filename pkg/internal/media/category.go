package media

import (
	"mime"
	"strings"
)

// Category 媒体大类.
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryAudio Category = "audio"
)

// CategoryOf 根据声明的 MIME 类型返回媒体大类；非图片、视频、音频返回 false.
func CategoryOf(mimeType string) (Category, bool) {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(mimeType))
	if err != nil {
		return "", false
	}

	major, _, ok := strings.Cut(mt, "/")
	if !ok {
		return "", false
	}

	switch Category(major) {
	case CategoryImage:
		return CategoryImage, true
	case CategoryVideo:
		return CategoryVideo, true
	case CategoryAudio:
		return CategoryAudio, true
	}

	return "", false
}

// BaseMIME 去掉参数并小写，例如 "Image/JPEG; q=1" -> "image/jpeg".
func BaseMIME(mimeType string) string {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(mimeType))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}

	return mt
}
