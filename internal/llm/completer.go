package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/atlas-go/internal/config"
	"github.com/comigor/atlas-go/internal/history"
	"github.com/comigor/atlas-go/internal/logger"
)

// FallbackReply is returned when the service answers without any content.
const FallbackReply = "Désolé, je n'ai pas compris."

// APIError is a non-success answer from the completion service.
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OpenAI API error: %d - %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// Completer turns an utterance plus prior turns into a reply.
type Completer struct {
	client      Client
	apiKey      string
	model       string
	temperature float32
	persona     Persona
}

func NewCompleter(client Client, cfg config.LLMConfig, persona Persona) *Completer {
	return &Completer{
		client:      client,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		persona:     persona,
	}
}

// Complete sends one chat completion request: the persona, at most the last
// history.ContextWindow turns of prior, then the utterance. There is no retry.
func (c *Completer) Complete(ctx context.Context, utterance string, prior []history.Turn) (string, error) {
	if c.apiKey == "" {
		return "", config.ErrMissingAPIKey
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: wireTemperature(c.temperature),
		Messages:    c.messages(utterance, prior),
	}
	logger.L.Debug("chat completion request", "model", req.Model, "messages", len(req.Messages))

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", upstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return FallbackReply, nil
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return FallbackReply, nil
	}
	return text, nil
}

func (c *Completer) messages(utterance string, prior []history.Turn) []openai.ChatCompletionMessage {
	window := history.Window(prior, history.ContextWindow)
	msgs := make([]openai.ChatCompletionMessage, 0, len(window)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: c.persona.System})
	for _, t := range window {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: t.Role, Content: t.Content})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: utterance})
}

// wireTemperature keeps an explicit zero on the wire: go-openai omits a zero
// Temperature and the service would then apply its own default.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func upstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		// go-openai consumes the body while decoding it; re-encode the error object.
		body, merr := json.Marshal(openai.ErrorResponse{Error: apiErr})
		if merr != nil {
			body = []byte(apiErr.Message)
		}
		return &APIError{StatusCode: apiErr.HTTPStatusCode, Body: string(body), Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{StatusCode: reqErr.HTTPStatusCode, Body: string(reqErr.Body), Err: err}
	}
	return fmt.Errorf("chat completion: %w", err)
}
