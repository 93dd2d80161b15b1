package generator

import (
	"strings"

	"github.com/tidwall/gjson"
)

// PostProcessRewrite 清理改写结果：模型偶尔会把引号或代码块原样带回。
// An empty result falls back to the original selection.
func PostProcessRewrite(raw, original string) string {
	text := strings.TrimSpace(raw)
	text = stripFence(text)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' && !hasQuotes(original) {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	if text == "" {
		return original
	}
	return text
}

// ParseAlternatives 解析 JSON 数组；无法解析时返回空列表。
func ParseAlternatives(raw string, limit int) []string {
	raw = stripFence(strings.TrimSpace(raw))
	if !gjson.Valid(raw) {
		return []string{}
	}
	res := gjson.Parse(raw)
	if !res.IsArray() {
		return []string{}
	}
	out := make([]string, 0, limit)
	seen := make(map[string]bool)
	res.ForEach(func(_, v gjson.Result) bool {
		s := strings.TrimSpace(v.String())
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
		return limit <= 0 || len(out) < limit
	})
	return out
}

// stripFence removes a surrounding ``` block.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if i := strings.IndexByte(body, '\n'); i >= 0 && !strings.ContainsAny(body[:i], " \t") {
		body = body[i+1:]
	}
	return strings.TrimSpace(body)
}

func hasQuotes(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}
