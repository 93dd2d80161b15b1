package generator

import (
	"fmt"
	"strings"
)

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System string
	User   string
	// Smart selects the stronger (slower) model tier.
	Smart       bool
	Temperature float64
	MaxTokens   int
	// JSON asks the provider for a JSON response when it supports that.
	JSON bool
}

const (
	continueTemperature = 0.8
	continueMaxTokens   = 300
	improveTemperature  = 0.3
	alternativesCount   = 5
)

// BuildContinuationPrompt 生成续写提示词。context is the trailing window of the document.
func BuildContinuationPrompt(context string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an expert co-writer. The user is writing a text.\n")
	sb.WriteString("Your task is to seamlessly continue the text from where it left off.\n")
	sb.WriteString("Maintain the user's tone, style, and voice.\n")
	sb.WriteString("Do not repeat the last sentence.\n")
	sb.WriteString("Just output the continuation text directly.")

	user := fmt.Sprintf("Context:\n%s\n\nContinuation:", context)

	return Prompt{
		System:      sb.String(),
		User:        user,
		Temperature: continueTemperature,
		MaxTokens:   continueMaxTokens,
	}
}

// BuildImprovePrompt 生成改写提示词。
func BuildImprovePrompt(selection, instruction string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a professional editor.\n")
	sb.WriteString(fmt.Sprintf("Improve the following text based on this instruction: %q.\n", instruction))
	sb.WriteString("Return ONLY the improved text. Do not add conversational filler.")

	user := fmt.Sprintf("Original Text:\n%q", selection)

	return Prompt{
		System:      sb.String(),
		User:        user,
		Smart:       true,
		Temperature: improveTemperature,
	}
}

// BuildAlternativesPrompt 生成近义词提示词。
func BuildAlternativesPrompt(phrase string) Prompt {
	system := fmt.Sprintf("Provide %d distinct synonyms or short alternative phrases. "+
		"Respond with a JSON array of strings and nothing else.", alternativesCount)
	return Prompt{
		System: system,
		User:   fmt.Sprintf("%q", phrase),
		JSON:   true,
	}
}
