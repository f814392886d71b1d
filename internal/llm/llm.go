package llm

import (
	"github.com/comigor/atlas-go/internal/config"
	"github.com/sashabaranov/go-openai"
)

// NewClient builds the go-openai client for cfg. An empty BaseURL keeps the
// library's public endpoint.
func NewClient(cfg config.LLMConfig) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}

	return openai.NewClientWithConfig(c)
}
