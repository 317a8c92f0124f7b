package media

import "strings"

// MaxTags 单条记录最多保留的标签数.
const MaxTags = 10

// NormalizeTags 去空白、转小写、去重并保留首次出现的顺序，最多 MaxTags 个.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, t := range tags {
		t = strings.Join(strings.Fields(strings.ToLower(t)), " ")
		t = strings.TrimPrefix(t, "#")

		if t == "" {
			continue
		}

		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}
		out = append(out, t)

		if len(out) == MaxTags {
			break
		}
	}

	return out
}

// NormalizePeople 去空白并按不区分大小写去重，保留首次出现的写法.
func NormalizePeople(people []string) []string {
	out := make([]string, 0, len(people))
	seen := make(map[string]struct{}, len(people))

	for _, p := range people {
		p = strings.Join(strings.Fields(p), " ")
		if p == "" {
			continue
		}

		key := strings.ToLower(p)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, p)
	}

	return out
}

// MergePeople 合并多组人名，结果去重.
func MergePeople(groups ...[]string) []string {
	var all []string
	for _, g := range groups {
		all = append(all, g...)
	}

	return NormalizePeople(all)
}

// RenamePerson 把 people 中与 from 相同（不区分大小写）的名字替换为 to.
// 替换后重新去重；changed 表示是否命中.
func RenamePerson(people []string, from, to string) (out []string, changed bool) {
	from = strings.ToLower(strings.TrimSpace(from))
	out = make([]string, 0, len(people))

	for _, p := range people {
		if strings.ToLower(strings.TrimSpace(p)) == from {
			out = append(out, to)
			changed = true

			continue
		}

		out = append(out, p)
	}

	return NormalizePeople(out), changed
}
