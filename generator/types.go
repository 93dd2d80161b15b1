package generator

import (
	"fmt"
	"strings"
)

// Preset 是常用的改写指令。
type Preset struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
}

// Presets offered next to the free-form instruction box.
var Presets = []Preset{
	{Name: "Fix grammar", Instruction: "Fix grammar and spelling"},
	{Name: "Make concise", Instruction: "Make it more concise and punchy"},
	{Name: "Expand", Instruction: "Expand and describe in more detail"},
}

// Provider names accepted by NewLLM.
const (
	ProviderOpenAI    = "openai"
	ProviderDeepSeek  = "deepseek"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// NewLLM builds the client for settings.Provider.
func NewLLM(settings *LLMSettings) (LLMClient, error) {
	if settings == nil || settings.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key_env in config")
	}
	switch strings.ToLower(settings.Provider) {
	case ProviderOpenAI:
		return NewOpenAILLMFromConfig(settings)
	case ProviderDeepSeek:
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if settings.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return NewOpenAILLMFromConfig(settings)
	case ProviderGemini:
		return NewGeminiLLMFromConfig(settings)
	case ProviderAnthropic:
		return NewAnthropicLLMFromConfig(settings)
	case ProviderMock:
		return MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", settings.Provider)
	}
}
