package completion

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// mockChatService implements ChatCompletionService for testing
type mockChatService struct {
	response *openai.ChatCompletion
	err      error
	// Track calls for verification
	callCount  int
	lastParams openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	m.callCount++
	m.lastParams = params
	return m.response, m.err
}

func chatResponse(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestOpenAI_Complete_ReturnsContent(t *testing.T) {
	mock := &mockChatService{response: chatResponse(`[{"title":"Dune"}]`)}
	client := &OpenAI{chat: mock, model: openai.ChatModelGPT4oMini}

	result, err := client.Complete(context.Background(), "act as a librarian", "recommend books")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `[{"title":"Dune"}]` {
		t.Errorf("unexpected result: %q", result)
	}
	if mock.callCount != 1 {
		t.Errorf("expected 1 call, got %d", mock.callCount)
	}
}

func TestOpenAI_Complete_NoChoices(t *testing.T) {
	mock := &mockChatService{response: &openai.ChatCompletion{}}
	client := &OpenAI{chat: mock, model: openai.ChatModelGPT4oMini}

	_, err := client.Complete(context.Background(), "sys", "user")
	if err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestOpenAI_Complete_MapsRateLimit(t *testing.T) {
	mock := &mockChatService{err: &openai.Error{StatusCode: http.StatusTooManyRequests}}
	client := &OpenAI{chat: mock, model: openai.ChatModelGPT4oMini}

	_, err := client.Complete(context.Background(), "sys", "user")
	if !errors.Is(err, ErrOverloaded) {
		t.Errorf("expected ErrOverloaded for 429, got %v", err)
	}
}

func TestOpenAI_Complete_MapsUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		mock := &mockChatService{err: &openai.Error{StatusCode: status}}
		client := &OpenAI{chat: mock, model: openai.ChatModelGPT4oMini}

		_, err := client.Complete(context.Background(), "sys", "user")
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized for %d, got %v", status, err)
		}
	}
}

func TestOpenAI_Complete_GenericErrorNotMapped(t *testing.T) {
	mock := &mockChatService{err: errors.New("connection reset")}
	client := &OpenAI{chat: mock, model: openai.ChatModelGPT4oMini}

	_, err := client.Complete(context.Background(), "sys", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrOverloaded) || errors.Is(err, ErrUnauthorized) {
		t.Errorf("generic error should not map to a sentinel: %v", err)
	}
}

func TestOpenAI_ModelName(t *testing.T) {
	client := &OpenAI{model: openai.ChatModel("gpt-4o-mini")}
	if client.ModelName() != "gpt-4o-mini" {
		t.Errorf("unexpected model name: %s", client.ModelName())
	}
}
