package generator

import (
	"context"
	"encoding/json"
	"strings"

	"zenwriter/composer"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	if prompt.JSON {
		alts := []string{"alternative one", "alternative two", "alternative three", "alternative four", "alternative five"}
		b, _ := json.Marshal(alts)
		return string(b), nil
	}
	// 很简单地把原文原样返回，加上标记。
	original := strings.TrimPrefix(prompt.User, "Original Text:\n")
	return "[edited] " + strings.Trim(original, `"`), nil
}

func (m MockLLM) Stream(_ context.Context, _ Prompt) (composer.FragmentStream, error) {
	text := " The words kept coming, one after another, until the page was full."
	var frags []string
	for _, w := range strings.SplitAfter(text, " ") {
		if w != "" {
			frags = append(frags, w)
		}
	}
	return composer.NewSliceStream(frags...), nil
}
