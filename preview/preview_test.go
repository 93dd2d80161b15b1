package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := Render("# ZenWriter\n\nStart *typing*...\n\n- [x] done")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>ZenWriter</h1>")
	assert.Contains(t, out, "<em>typing</em>")
	assert.Contains(t, out, `type="checkbox"`)
}

func TestRender_DropsRawHTML(t *testing.T) {
	out, err := Render("<script>alert(1)</script>\n\ntext")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Stats
	}{
		{name: "empty", text: "", want: Stats{}},
		{name: "whitespace", text: "  \n\t ", want: Stats{}},
		{name: "short", text: "Just you and your words.", want: Stats{Words: 5}},
		{name: "one minute", text: strings.Repeat("word ", 200), want: Stats{Words: 200, ReadingMinutes: 1}},
		{name: "rounds up", text: strings.Repeat("word ", 201), want: Stats{Words: 201, ReadingMinutes: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(tt.text))
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "a b c", Excerpt("a\n\nb   c", 10))
	assert.Equal(t, "héll", Excerpt("héllo", 4))
}
