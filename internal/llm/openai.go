package llm

import (
	"context"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/iWorld-y/event_research/internal/config"
)

// OpenAIBackend 直接使用 go-openai 客户端的后端，支持组织 ID
type OpenAIBackend struct {
	client *goopenai.Client
	model  string
}

// NewOpenAIBackend 创建 go-openai 后端
func NewOpenAIBackend(cfg config.LLMConfig) *OpenAIBackend {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.OrgID = cfg.OrgID
	// 单次请求超时，与 eino 后端的 ChatModelConfig.Timeout 一致
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIBackend{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Generate 调用 chat completions 并返回第一个候选
func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: b.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
