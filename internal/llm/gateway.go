// Package llm 是所有模型调用的唯一出口，负责全局并发上限与限流
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/event_research/internal/config"
	"github.com/iWorld-y/event_research/internal/logger"
)

// Completer 查询生成与文章总结共用的模型接口
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Gateway 包装 Backend，所有事件、所有阶段共享同一个并发池
type Gateway struct {
	backend    Backend
	pool       *semaphore.Weighted
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
}

var _ Completer = (*Gateway)(nil)

// Options 网关参数
type Options struct {
	MaxConcurrent int
	RPM           int
	QPS           int
	MaxRetries    int           // 仅针对 429 的重试次数
	BaseDelay     time.Duration // 429 指数退避的初始间隔
}

// OptionsFromConfig 由并发配置生成网关参数
func OptionsFromConfig(cfg config.ConcurrencyConfig) Options {
	return Options{
		MaxConcurrent: cfg.LLM,
		RPM:           cfg.RPM,
		QPS:           cfg.QPS,
		MaxRetries:    3,
		BaseDelay:     2 * time.Second,
	}
}

// NewGateway 创建模型网关
func NewGateway(backend Backend, opts Options) *Gateway {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}

	// Limit 设置为 RPM/60，Burst 设置为 QPS；未配置 RPM 时不限速
	limit := rate.Inf
	if opts.RPM > 0 {
		limit = rate.Limit(float64(opts.RPM) / 60.0)
	}
	burst := opts.QPS
	if burst <= 0 {
		burst = opts.MaxConcurrent
	}

	return &Gateway{
		backend:    backend,
		pool:       semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		limiter:    rate.NewLimiter(limit, burst),
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
	}
}

// Complete 占用一个并发槽位调用模型，429 时释放槽位退避后重试
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for i := 0; i <= g.maxRetries; i++ {
		text, err := g.call(ctx, prompt)
		if err == nil {
			return strings.TrimSpace(text), nil
		}
		if ctx.Err() != nil || !isRateLimited(err) {
			return "", err
		}

		lastErr = err
		if i == g.maxRetries {
			break
		}

		delay := g.baseDelay * time.Duration(1<<i) // 指数退避
		logger.Log.Warnf("触发 429 限流，等待 %v 后重试 (%d/%d)...", delay, i+1, g.maxRetries)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (g *Gateway) call(ctx context.Context, prompt string) (string, error) {
	if err := g.pool.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer g.pool.Release(1)

	// 等待限流令牌
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("limiter wait error: %w", err)
	}

	return g.backend.Generate(ctx, prompt)
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}
