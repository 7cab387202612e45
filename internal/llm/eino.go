package llm

import (
	"context"
	"fmt"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/event_research/internal/config"
)

// EinoBackend 基于 eino ChatModel 的后端
type EinoBackend struct {
	chatModel model.BaseChatModel
}

// NewEinoBackend 初始化 OpenAI 协议兼容的 eino ChatModel
func NewEinoBackend(ctx context.Context, cfg config.LLMConfig) (*EinoBackend, error) {
	chatModel, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create eino chat model: %w", err)
	}
	return &EinoBackend{chatModel: chatModel}, nil
}

// Generate 以单条 user 消息调用模型
func (b *EinoBackend) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.User, Content: prompt},
	}

	resp, err := b.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("empty response from chat model")
	}
	return resp.Content, nil
}
