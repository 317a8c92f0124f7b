package media

import "strings"

// Verdict 内容安全审核结论.
type Verdict string

const (
	VerdictSafe         Verdict = "SAFE"
	VerdictPossibleNSFW Verdict = "POSSIBLE_NSFW"
	VerdictNSFW         Verdict = "NSFW"
	VerdictUnknown      Verdict = "UNKNOWN"
)

// Valid 是否为已知结论.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictSafe, VerdictPossibleNSFW, VerdictNSFW, VerdictUnknown:
		return true
	}

	return false
}

// ParseVerdict 宽松解析 AI 返回的结论，无法识别时为 UNKNOWN.
func ParseVerdict(s string) Verdict {
	v := Verdict(strings.ToUpper(strings.Join(strings.Fields(s), "_")))
	if v.Valid() {
		return v
	}

	return VerdictUnknown
}

// SafetyReason 合并结论与理由，写入记录的 safety_reason 字段.
func SafetyReason(v Verdict, reasons []string) string {
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r = strings.TrimSpace(r); r != "" {
			parts = append(parts, r)
		}
	}

	if len(parts) == 0 {
		return string(v)
	}

	return string(v) + ": " + strings.Join(parts, "; ")
}
