package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// Client is the one call Completer makes to the completion service.
// *openai.Client satisfies it; tests substitute a recording fake.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}
