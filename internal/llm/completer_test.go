package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/comigor/atlas-go/internal/config"
	"github.com/comigor/atlas-go/internal/history"
)

type mockLLM struct {
	requests []openai.ChatCompletionRequest
	resp     openai.ChatCompletionResponse
	err      error
}

func (m *mockLLM) CreateChatCompletion(ctx context.Context, r openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.requests = append(m.requests, r)
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	return m.resp, nil
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
	}}
}

var testCfg = config.LLMConfig{APIKey: "sk-test", Model: "gpt-4o-mini", Temperature: 0.7}

func TestComplete_EmptyHistory(t *testing.T) {
	m := &mockLLM{resp: reply("  Il est midi.\n")}
	c := NewCompleter(m, testCfg, DefaultPersona())

	out, err := c.Complete(context.Background(), "Quelle heure est-il ?", nil)
	require.NoError(t, err)
	require.Equal(t, "Il est midi.", out)

	require.Len(t, m.requests, 1)
	req := m.requests[0]
	require.Equal(t, "gpt-4o-mini", req.Model)
	require.InDelta(t, 0.7, req.Temperature, 0.0001)
	require.False(t, req.Stream)
	require.Len(t, req.Messages, 2)
	require.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	require.Contains(t, req.Messages[0].Content, "Atlas")
	require.Equal(t, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "Quelle heure est-il ?"}, req.Messages[1])
}

func TestComplete_WindowsHistory(t *testing.T) {
	var prior []history.Turn
	for i := 0; i < 10; i++ {
		prior = append(prior, history.User(fmt.Sprintf("q%d", i)), history.Assistant(fmt.Sprintf("a%d", i)))
	}
	m := &mockLLM{resp: reply("ok")}
	c := NewCompleter(m, testCfg, DefaultPersona())

	_, err := c.Complete(context.Background(), "suivant", prior)
	require.NoError(t, err)

	msgs := m.requests[0].Messages
	require.Len(t, msgs, history.ContextWindow+2)
	require.Equal(t, "q7", msgs[1].Content)
	require.Equal(t, history.RoleUser, msgs[1].Role)
	require.Equal(t, "a9", msgs[6].Content)
	require.Equal(t, history.RoleAssistant, msgs[6].Role)
	require.Equal(t, "suivant", msgs[7].Content)
	require.Len(t, prior, 20, "caller history must be untouched")
}

func TestComplete_FallbackWhenNoContent(t *testing.T) {
	for name, resp := range map[string]openai.ChatCompletionResponse{
		"no choices":    {},
		"empty content": reply(""),
		"blank content": reply("   "),
	} {
		t.Run(name, func(t *testing.T) {
			c := NewCompleter(&mockLLM{resp: resp}, testCfg, DefaultPersona())
			out, err := c.Complete(context.Background(), "hein ?", nil)
			require.NoError(t, err)
			require.Equal(t, FallbackReply, out)
		})
	}
}

func TestComplete_MissingAPIKey(t *testing.T) {
	m := &mockLLM{resp: reply("never")}
	cfg := testCfg
	cfg.APIKey = ""
	c := NewCompleter(m, cfg, DefaultPersona())

	_, err := c.Complete(context.Background(), "bonjour", nil)
	require.ErrorIs(t, err, config.ErrMissingAPIKey)
	require.Empty(t, m.requests, "no request may be issued without a key")
}

func TestComplete_TransportError(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	c := NewCompleter(&mockLLM{err: boom}, testCfg, DefaultPersona())

	_, err := c.Complete(context.Background(), "bonjour", nil)
	require.ErrorIs(t, err, boom)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
}

func newFakeService(t *testing.T, h http.HandlerFunc) *Completer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := testCfg
	cfg.BaseURL = srv.URL + "/v1"
	return NewCompleter(NewClient(cfg), cfg, DefaultPersona())
}

func TestComplete_OverHTTP(t *testing.T) {
	c := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model       string         `json:"model"`
			Temperature float32        `json:"temperature"`
			Messages    []history.Turn `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "gpt-4o-mini", body.Model)
		require.InDelta(t, 0.7, body.Temperature, 0.0001)
		require.Len(t, body.Messages, 3)
		require.Equal(t, "Salut", body.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": " Bonjour ! "}}},
		})
	})

	out, err := c.Complete(context.Background(), "Ça va ?", []history.Turn{history.User("Salut")})
	require.NoError(t, err)
	require.Equal(t, "Bonjour !", out)
}

func TestComplete_ZeroTemperatureStaysOnTheWire(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	t.Cleanup(srv.Close)

	cfg := testCfg
	cfg.BaseURL = srv.URL + "/v1"
	cfg.Temperature = 0
	c := NewCompleter(NewClient(cfg), cfg, DefaultPersona())

	_, err := c.Complete(context.Background(), "bonjour", nil)
	require.NoError(t, err)
	require.Contains(t, raw, "temperature")
	require.InDelta(t, 0, raw["temperature"], 1e-30)

	m := &mockLLM{resp: reply("ok")}
	_, err = NewCompleter(m, cfg, DefaultPersona()).Complete(context.Background(), "bonjour", nil)
	require.NoError(t, err)
	require.Equal(t, float32(math.SmallestNonzeroFloat32), m.requests[0].Temperature)
}

func TestComplete_MissingChoicesOverHTTP(t *testing.T) {
	c := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[{"index":0,"message":{"role":"assistant"}}]}`))
	})

	out, err := c.Complete(context.Background(), "?", nil)
	require.NoError(t, err)
	require.Equal(t, FallbackReply, out)
}

func TestComplete_UpstreamStatus(t *testing.T) {
	t.Run("plain body", func(t *testing.T) {
		c := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upstream exploded"))
		})

		_, err := c.Complete(context.Background(), "Quelle heure est-il ?", nil)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		require.Equal(t, "upstream exploded", apiErr.Body)
		require.Equal(t, "OpenAI API error: 500 - upstream exploded", apiErr.Error())
	})

	t.Run("openai error body", func(t *testing.T) {
		c := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
		})

		_, err := c.Complete(context.Background(), "bonjour", nil)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		require.JSONEq(t, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, apiErr.Body)
		require.Contains(t, apiErr.Error(), "OpenAI API error: 401 - ")
	})
}
