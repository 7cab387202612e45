package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/event_research/internal/logger"
	"github.com/iWorld-y/event_research/internal/model"
)

// Searcher 见 search.Provider
type Searcher interface {
	Search(ctx context.Context, query string, want int) []model.SearchResult
}

// Fetcher 见 fetch.Fetcher
type Fetcher interface {
	Fetch(ctx context.Context, results []model.SearchResult, want int) []model.Article
}

// Pipeline 单个搜索词的 搜索 -> 抓取 -> 总结
type Pipeline struct {
	searcher   Searcher
	fetcher    Fetcher
	summarizer *Summarizer
	numURLs    int
}

// NewPipeline 创建证据流水线
func NewPipeline(searcher Searcher, fetcher Fetcher, summarizer *Summarizer, numURLs int) *Pipeline {
	return &Pipeline{searcher: searcher, fetcher: fetcher, summarizer: summarizer, numURLs: numURLs}
}

// Process 依次执行三个阶段；只有总结失败会返回错误
func (p *Pipeline) Process(ctx context.Context, index int, query string, event *model.Event, description string) (model.QuerySummary, error) {
	results := p.searcher.Search(ctx, query, p.numURLs)
	articles := p.fetcher.Fetch(ctx, results, p.numURLs)

	summary, err := p.summarizer.Summarize(ctx, articles, event, description)
	if err != nil {
		return model.QuerySummary{}, err
	}

	logger.Log.WithFields(logrus.Fields{
		"ticker": event.Ticker,
		"query":  query,
	}).Debugf("搜索词 %d 完成: results=%d articles=%d", index, len(results), len(articles))

	return model.QuerySummary{
		Index:    index,
		Query:    query,
		Summary:  summary,
		Articles: articles,
	}, nil
}
