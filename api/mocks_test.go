package api_test

import (
	"context"
	"time"

	"github.com/omegabytes/ecocode-sentinel/llm"
	"github.com/omegabytes/ecocode-sentinel/prompt"
)

type mockClient struct {
	completeFn func(ctx context.Context, p prompt.Prompt) (*llm.Completion, error)
	calls      int
}

func (m *mockClient) Complete(ctx context.Context, p prompt.Prompt) (*llm.Completion, error) {
	m.calls++
	if m.completeFn != nil {
		return m.completeFn(ctx, p)
	}
	return &llm.Completion{Content: "", Model: "mock", Duration: time.Second}, nil
}

func (m *mockClient) Provider() llm.Provider { return llm.Ollama }
func (m *mockClient) Model() string          { return "mock" }

func answer(content string) func(context.Context, prompt.Prompt) (*llm.Completion, error) {
	return func(context.Context, prompt.Prompt) (*llm.Completion, error) {
		return &llm.Completion{Content: content, Model: "mock", Duration: 800 * time.Millisecond}, nil
	}
}
