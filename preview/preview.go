// Package preview renders the document buffer for display.
package preview

import (
	"bytes"
	"math"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const wordsPerMinute = 200

// Without html.WithUnsafe, raw HTML typed into the buffer is omitted.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Render converts the markdown buffer to HTML.
func Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Stats are derived counts of the buffer.
type Stats struct {
	Words int `json:"words"`
	// ReadingMinutes is rounded up; 0 means under a minute.
	ReadingMinutes int `json:"reading_minutes"`
}

// Count computes Stats for text.
func Count(text string) Stats {
	words := len(strings.Fields(text))
	minutes := float64(words) / wordsPerMinute
	st := Stats{Words: words}
	if minutes >= 1 {
		st.ReadingMinutes = int(math.Ceil(minutes))
	}
	return st
}

// Excerpt 取前 limit 个字符作为摘要（空白压缩）。
func Excerpt(text string, limit int) string {
	joined := strings.Join(strings.Fields(text), " ")
	runes := []rune(joined)
	if len(runes) <= limit {
		return joined
	}
	return string(runes[:limit])
}
