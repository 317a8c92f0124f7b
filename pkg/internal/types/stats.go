package types

import "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"

// StatsItem 某一维度下的数量与字节数.
type StatsItem struct {
	Count int64 `json:"count"`
	Bytes int64 `json:"bytes"`
}

// StatsSummary 媒体统计汇总.
type StatsSummary struct {
	Total      StatsItem                    `json:"total"`
	ByStatus   map[media.Status]StatsItem   `json:"byStatus"`
	ByCategory map[media.Category]StatsItem `json:"byCategory"`
}
