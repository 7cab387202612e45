// Package app 按配置组装各组件，供命令行入口使用
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/iWorld-y/event_research/internal/batch"
	"github.com/iWorld-y/event_research/internal/config"
	"github.com/iWorld-y/event_research/internal/engine"
	"github.com/iWorld-y/event_research/internal/fetch"
	"github.com/iWorld-y/event_research/internal/kalshi"
	"github.com/iWorld-y/event_research/internal/llm"
	"github.com/iWorld-y/event_research/internal/logger"
	"github.com/iWorld-y/event_research/internal/search"
	"github.com/iWorld-y/event_research/internal/search/factory"
	"github.com/iWorld-y/event_research/internal/storage"
)

// App 一次进程生命周期内共享的组件
type App struct {
	cfg    *config.Config
	store  storage.ReportStore
	source *kalshi.Client
	engine *engine.Engine
}

// New 根据配置创建模型后端和存储并组装引擎
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	backend, err := llm.NewBackend(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("存储初始化失败: %w", err)
	}

	a, err := NewWithDeps(cfg, backend, store)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return a, nil
}

// NewWithDeps 使用给定的模型后端和存储组装引擎
func NewWithDeps(cfg *config.Config, backend llm.Backend, store storage.ReportStore) (*App, error) {
	searcher, err := factory.NewSearcher(cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("搜索客户端初始化失败: %w", err)
	}

	extractor, err := fetch.NewExtractor(cfg.Research.Extractor)
	if err != nil {
		return nil, err
	}

	// 三个并发池：LLM 在网关内，HTTP 在抓取器内，事件在引擎内
	gateway := llm.NewGateway(backend, llm.OptionsFromConfig(cfg.Concurrency))
	fetcher := fetch.NewFetcher(nil, semaphore.NewWeighted(int64(cfg.Concurrency.HTTP)), extractor, fetch.Options{
		MinChars:  cfg.Research.MinArticleChars,
		MaxChars:  cfg.Research.MaxArticleChars,
		Timeout:   cfg.Research.FetchTimeout,
		UserAgent: cfg.Research.UserAgent,
	})

	planner := engine.NewPlanner(gateway, cfg.Research.NumQueries, cfg.Research.MaxQueryWords)
	pipeline := engine.NewPipeline(search.NewProvider(searcher), fetcher, engine.NewSummarizer(gateway), cfg.Research.NumURLs)
	source := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.EventsIndex, cfg.Kalshi.Timeout)

	eng := engine.NewEngine(source, store, planner, pipeline, engine.Options{
		MaxConcurrentTickers: cfg.Concurrency.Tickers,
		MaxRetries:           cfg.Research.MaxRetries,
		RetryDelay:           cfg.Research.RetryDelay,
		MaxMarkets:           cfg.Research.MaxMarkets,
	})

	return &App{cfg: cfg, store: store, source: source, engine: eng}, nil
}

// RunBatch 拉取活跃事件列表，抽样切片后批量生成报告
func (a *App) RunBatch(ctx context.Context) (engine.RunSummary, error) {
	entries, err := a.source.ListIndex(ctx)
	if err != nil {
		return engine.RunSummary{}, err
	}

	tickers := batch.Select(entries, batch.Options{
		SampleTarget: a.cfg.Batch.SampleTarget,
		Seed:         a.cfg.Batch.Seed,
		Offset:       a.cfg.Batch.Offset,
		Window:       a.cfg.Batch.Window,
	})
	logger.Log.Infof("事件列表共 %d 个，本批处理 %d 个 (offset=%d window=%d)",
		len(entries), len(tickers), a.cfg.Batch.Offset, a.cfg.Batch.Window)

	return a.engine.Run(ctx, tickers), nil
}

// RunTickers 只处理指定的事件
func (a *App) RunTickers(ctx context.Context, tickers []string) engine.RunSummary {
	return a.engine.Run(ctx, tickers)
}

// Close 关闭存储连接
func (a *App) Close(ctx context.Context) error {
	return a.store.Close(ctx)
}
