package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"zenwriter/composer"
)

// GeminiLLM implements LLMClient on the Gemini API.
type GeminiLLM struct {
	Settings LLMSettings
}

func NewGeminiLLMFromConfig(cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	return &GeminiLLM{Settings: *cfg}, nil
}

func (g *GeminiLLM) model(ctx context.Context, prompt Prompt) (*genai.Client, *genai.GenerativeModel, error) {
	if g.Settings.APIKey == "" {
		return nil, nil, composer.ErrMissingCredential
	}
	opts := []option.ClientOption{option.WithAPIKey(g.Settings.APIKey)}
	if g.Settings.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(g.Settings.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	m := client.GenerativeModel(g.Settings.modelFor(prompt))
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
	if prompt.Temperature > 0 {
		m.SetTemperature(float32(prompt.Temperature))
	}
	if prompt.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(prompt.MaxTokens))
	}
	if prompt.JSON {
		m.ResponseMIMEType = "application/json"
	}
	return client, m, nil
}

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client, m, err := g.model(ctx, prompt)
	if err != nil {
		return "", err
	}
	defer client.Close()

	resp, err := m.GenerateContent(ctx, genai.Text(prompt.User))
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

func (g *GeminiLLM) Stream(ctx context.Context, prompt Prompt) (composer.FragmentStream, error) {
	client, m, err := g.model(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &geminiStream{client: client, it: m.GenerateContentStream(ctx, genai.Text(prompt.User))}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}

// geminiStream adapts the response iterator. The client lives as long as the stream.
type geminiStream struct {
	client *genai.Client
	it     *genai.GenerateContentResponseIterator
	cur    string
	err    error
}

func (s *geminiStream) Next() bool {
	for s.err == nil {
		resp, err := s.it.Next()
		if errors.Is(err, iterator.Done) {
			return false
		}
		if err != nil {
			s.err = err
			return false
		}
		if text := responseText(resp); text != "" {
			s.cur = text
			return true
		}
	}
	return false
}

func (s *geminiStream) Current() string { return s.cur }
func (s *geminiStream) Err() error      { return s.err }
func (s *geminiStream) Close() error    { return s.client.Close() }
