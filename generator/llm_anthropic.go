package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"zenwriter/composer"
)

// defaultAnthropicMaxTokens is used when the prompt sets no limit; the API requires one.
const defaultAnthropicMaxTokens = 1024

// AnthropicLLM implements LLMClient on the Anthropic Messages API.
type AnthropicLLM struct {
	Settings LLMSettings
	Opts     []option.RequestOption
}

func NewAnthropicLLMFromConfig(cfg *LLMSettings) (*AnthropicLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicLLM{Settings: *cfg, Opts: opts}, nil
}

func (a *AnthropicLLM) params(prompt Prompt) anthropic.MessageNewParams {
	maxTokens := int64(defaultAnthropicMaxTokens)
	if prompt.MaxTokens > 0 {
		maxTokens = int64(prompt.MaxTokens)
	}
	p := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Settings.modelFor(prompt)),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: prompt.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	}
	if prompt.Temperature > 0 {
		p.Temperature = anthropic.Float(prompt.Temperature)
	}
	return p
}

func (a *AnthropicLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if a.Settings.APIKey == "" {
		return "", composer.ErrMissingCredential
	}
	client := anthropic.NewClient(a.Opts...)

	msg, err := client.Messages.New(ctx, a.params(prompt))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func (a *AnthropicLLM) Stream(ctx context.Context, prompt Prompt) (composer.FragmentStream, error) {
	if a.Settings.APIKey == "" {
		return nil, composer.ErrMissingCredential
	}
	client := anthropic.NewClient(a.Opts...)
	return &anthropicStream{stream: client.Messages.NewStreaming(ctx, a.params(prompt))}, nil
}

// anthropicStream yields only text deltas from the event stream.
type anthropicStream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
	cur    string
}

func (s *anthropicStream) Next() bool {
	for s.stream.Next() {
		event := s.stream.Current()
		ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
		if !ok || delta.Text == "" {
			continue
		}
		s.cur = delta.Text
		return true
	}
	return false
}

func (s *anthropicStream) Current() string { return s.cur }
func (s *anthropicStream) Err() error      { return s.stream.Err() }
func (s *anthropicStream) Close() error    { return s.stream.Close() }
