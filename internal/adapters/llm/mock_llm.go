package llm

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/PabloGalante/haven-intake/internal/domain"
)

// CompleterFunc adapts a function to domain.Completer.
type CompleterFunc func(ctx context.Context, prompt string, params domain.GenerationParams) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
	return f(ctx, prompt, params)
}

// MockLLM is a local stand-in for a real backend. It answers chat prompts
// with a short acknowledgement and leaves JSON requests empty, so summaries
// always come from the rule-based path.
type MockLLM struct {
	calls atomic.Int64
}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Complete(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if params.JSON {
		return "", nil
	}
	n := m.calls.Add(1)
	return fmt.Sprintf("Thank you for telling me. I'm listening (note %d). Can you tell me a little more about what happened?", n), nil
}
