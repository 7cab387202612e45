package llm

import (
	"context"
	"fmt"

	"github.com/iWorld-y/event_research/internal/config"
)

// Backend 单次无状态的 prompt -> text 调用
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewBackend 根据配置创建模型后端
func NewBackend(ctx context.Context, cfg config.LLMConfig) (Backend, error) {
	switch cfg.Provider {
	case "", "eino":
		return NewEinoBackend(ctx, cfg)
	case "openai":
		return NewOpenAIBackend(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
