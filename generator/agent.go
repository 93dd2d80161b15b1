package generator

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"zenwriter/composer"
)

// Agent 把 LLMClient 适配为编辑器需要的三种能力：续写、改写、近义词。
type Agent struct {
	llm LLMClient
	log *zap.Logger
}

var (
	_ composer.Generator = (*Agent)(nil)
	_ composer.Rewriter  = (*Agent)(nil)
)

func NewAgent(llm LLMClient, log *zap.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{llm: llm, log: log.With(zap.String("module", "generator"))}, nil
}

// RequestContinuation streams a continuation of window.
func (a *Agent) RequestContinuation(ctx context.Context, window string) (composer.FragmentStream, error) {
	stream, err := a.llm.Stream(ctx, BuildContinuationPrompt(window))
	if err != nil {
		a.log.Warn("continuation request failed", zap.Error(err))
		return nil, err
	}
	return stream, nil
}

// RequestRewrite rewrites selected according to instruction.
func (a *Agent) RequestRewrite(ctx context.Context, selected, instruction string) (string, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "", errors.New("instruction is required")
	}
	raw, err := a.llm.Complete(ctx, BuildImprovePrompt(selected, instruction))
	if err != nil {
		a.log.Warn("rewrite request failed", zap.Error(err))
		return "", err
	}
	return PostProcessRewrite(raw, selected), nil
}

// Alternatives 返回最多 5 个近义词或替换短语。
func (a *Agent) Alternatives(ctx context.Context, phrase string) ([]string, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return []string{}, nil
	}
	raw, err := a.llm.Complete(ctx, BuildAlternativesPrompt(phrase))
	if err != nil {
		return nil, err
	}
	alts := ParseAlternatives(raw, alternativesCount)
	if len(alts) == 0 {
		a.log.Warn("failed to parse alternatives", zap.String("raw", raw))
	}
	return alts, nil
}
