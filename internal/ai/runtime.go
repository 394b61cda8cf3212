package ai

import (
	"context"
	"errors"
	"strings"
)

// Runtime is implemented by chat-completion backends such as OpenRouter,
// Groq and a local Ollama daemon.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used for runtime selection.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGroq       = "groq"
	ProviderOllama     = "ollama"
	// ProviderNone disables narrative generation.
	ProviderNone = "none"
)

// AnalystPersona is the system message sent with every narrative request.
const AnalystPersona = "You are a professional real estate market analyst."

// ErrEmptyCompletion is returned when a runtime answers without any text.
var ErrEmptyCompletion = errors.New("empty completion")

// Narrator adapts a Runtime and a model name to single-prompt completions.
type Narrator struct {
	Runtime Runtime
	Model   string
	System  string
}

// NewNarrator returns a Narrator using the analyst persona as system message.
func NewNarrator(rt Runtime, model string) *Narrator {
	return &Narrator{Runtime: rt, Model: model, System: AnalystPersona}
}

// Complete sends prompt as the user message and returns the trimmed reply.
func (n *Narrator) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if n == nil || n.Runtime == nil {
		return "", errors.New("no runtime configured")
	}
	msgs := make([]Message, 0, 2)
	if n.System != "" {
		msgs = append(msgs, Message{Role: "system", Content: n.System})
	}
	msgs = append(msgs, Message{Role: "user", Content: prompt})
	resp, err := n.Runtime.Generate(ctx, GenerateRequest{
		Model:       n.Model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
