package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenwriter/composer"
)

// scriptedLLM returns canned output and records the last prompt.
type scriptedLLM struct {
	complete  string
	fragments []string
	err       error
	last      Prompt
}

func (s *scriptedLLM) Complete(_ context.Context, p Prompt) (string, error) {
	s.last = p
	return s.complete, s.err
}

func (s *scriptedLLM) Stream(_ context.Context, p Prompt) (composer.FragmentStream, error) {
	s.last = p
	if s.err != nil {
		return nil, s.err
	}
	return composer.NewSliceStream(s.fragments...), nil
}

func TestNewAgent_RequiresLLM(t *testing.T) {
	_, err := NewAgent(nil, nil)
	assert.Error(t, err)
}

func TestAgent_RequestContinuation(t *testing.T) {
	llm := &scriptedLLM{fragments: []string{"a", "b"}}
	agent, err := NewAgent(llm, nil)
	require.NoError(t, err)

	stream, err := agent.RequestContinuation(context.Background(), "It was a dark night")
	require.NoError(t, err)

	var got []string
	for stream.Next() {
		got = append(got, stream.Current())
	}
	assert.NoError(t, stream.Err())
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Contains(t, llm.last.User, "It was a dark night")
	assert.False(t, llm.last.Smart)
	assert.Equal(t, continueTemperature, llm.last.Temperature)
	assert.Equal(t, continueMaxTokens, llm.last.MaxTokens)
}

func TestAgent_RequestRewrite(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		selected string
		want     string
	}{
		{name: "plain", raw: "Greetings", selected: "Hello", want: "Greetings"},
		{name: "quoted echo", raw: "\"Greetings\"", selected: "Hello", want: "Greetings"},
		{name: "keeps quotes of quoted input", raw: "\"Hi\"", selected: "\"Hello\"", want: "\"Hi\""},
		{name: "fenced", raw: "```\nGreetings\n```", selected: "Hello", want: "Greetings"},
		{name: "empty falls back", raw: "   ", selected: "Hello", want: "Hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &scriptedLLM{complete: tt.raw}
			agent, err := NewAgent(llm, nil)
			require.NoError(t, err)

			got, err := agent.RequestRewrite(context.Background(), tt.selected, "make formal")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, llm.last.Smart)
			assert.Contains(t, llm.last.System, "make formal")
		})
	}
}

func TestAgent_RequestRewriteErrors(t *testing.T) {
	llm := &scriptedLLM{err: composer.ErrMissingCredential}
	agent, err := NewAgent(llm, nil)
	require.NoError(t, err)

	_, err = agent.RequestRewrite(context.Background(), "Hello", "x")
	assert.ErrorIs(t, err, composer.ErrMissingCredential)

	_, err = agent.RequestRewrite(context.Background(), "Hello", "  ")
	assert.Error(t, err)
}

func TestAgent_Alternatives(t *testing.T) {
	llm := &scriptedLLM{complete: `["happy", "glad", "happy", "cheerful", "content", "joyful", "elated"]`}
	agent, err := NewAgent(llm, nil)
	require.NoError(t, err)

	alts, err := agent.Alternatives(context.Background(), "pleased")
	require.NoError(t, err)
	assert.Equal(t, []string{"happy", "glad", "cheerful", "content", "joyful"}, alts)
	assert.True(t, llm.last.JSON)

	llm.complete = "Sorry, I can't help with that."
	alts, err = agent.Alternatives(context.Background(), "pleased")
	require.NoError(t, err)
	assert.Empty(t, alts)

	llm.err = errors.New("timeout")
	_, err = agent.Alternatives(context.Background(), "pleased")
	assert.Error(t, err)
}

func TestParseAlternatives(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseAlternatives("```json\n[\"a\", \"b\"]\n```", 5))
	assert.Equal(t, []string{}, ParseAlternatives(`{"a": 1}`, 5))
	assert.Equal(t, []string{"a"}, ParseAlternatives(`["a", "", "  "]`, 5))
}

func TestMockLLM_Controller(t *testing.T) {
	agent, err := NewAgent(MockLLM{}, nil)
	require.NoError(t, err)
	c := composer.NewController("Hello world.", composer.WithGenerator(agent), composer.WithRewriter(agent))

	sess, err := c.BeginContinue(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Wait())
	assert.True(t, strings.HasPrefix(c.Text(), "Hello world. The words kept coming"))
	assert.True(t, strings.HasSuffix(c.Text(), "the page was full."))

	c.UpdateSelection(0, 5)
	sess, err = c.BeginImprove(context.Background(), "Fix grammar and spelling")
	require.NoError(t, err)
	require.NoError(t, sess.Wait())
	assert.True(t, strings.HasPrefix(c.Text(), "[edited] Hello world."))
}

func TestNewLLM(t *testing.T) {
	_, err := NewLLM(nil)
	assert.Error(t, err)

	_, err = NewLLM(&LLMSettings{Provider: "deepseek", Model: "deepseek-chat"})
	assert.Error(t, err, "deepseek needs base_url")

	_, err = NewLLM(&LLMSettings{Provider: "unknown", Model: "x"})
	assert.Error(t, err)

	llm, err := NewLLM(&LLMSettings{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, MockLLM{}, llm)

	for _, p := range []string{ProviderOpenAI, ProviderGemini, ProviderAnthropic} {
		llm, err := NewLLM(&LLMSettings{Provider: p, Model: "m"})
		require.NoError(t, err, p)

		_, err = llm.Complete(context.Background(), BuildImprovePrompt("x", "y"))
		assert.ErrorIs(t, err, composer.ErrMissingCredential, p)
		_, err = llm.Stream(context.Background(), BuildContinuationPrompt("x"))
		assert.ErrorIs(t, err, composer.ErrMissingCredential, p)
	}
}
