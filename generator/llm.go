package generator

import (
	"context"

	"zenwriter/composer"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
// Complete returns one full response; Stream yields the response as it is produced.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Stream(ctx context.Context, prompt Prompt) (composer.FragmentStream, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	// Model serves continuations; SmartModel serves rewrites and falls back to Model.
	Model      string
	SmartModel string
	APIKey     string
	BaseURL    string
}

func (s *LLMSettings) modelFor(p Prompt) string {
	if p.Smart && s.SmartModel != "" {
		return s.SmartModel
	}
	return s.Model
}
