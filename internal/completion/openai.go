package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Compile-time interface check
var _ Completer = (*OpenAI)(nil)

// ChatCompletionService defines the interface for making chat completion API calls.
// This abstraction enables testing without calling the real OpenAI API.
type ChatCompletionService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI implements the completion service using OpenAI's chat API
type OpenAI struct {
	chat  ChatCompletionService
	model openai.ChatModel
}

// NewOpenAI creates a new OpenAI completion service
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		chat:  client.Chat.Completions,
		model: openai.ChatModel(model),
	}
}

// Complete sends a system instruction and user prompt and returns the
// generated text. Provider rate-limit and credential failures are mapped
// to ErrOverloaded and ErrUnauthorized so callers can branch on them.
func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		}),
		Model: openai.F(o.model),
	})
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			switch apierr.StatusCode {
			case http.StatusTooManyRequests:
				return "", fmt.Errorf("completion request: %w", ErrOverloaded)
			case http.StatusUnauthorized, http.StatusForbidden:
				return "", fmt.Errorf("completion request: %w", ErrUnauthorized)
			}
		}
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion request failed: no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the completion model name
func (o *OpenAI) ModelName() string {
	return string(o.model)
}
