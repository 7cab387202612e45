package search

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/event_research/internal/logger"
	"github.com/iWorld-y/event_research/internal/model"
)

// Provider 包装 Searcher：多取一倍结果，按 URL 去重并截断
type Provider struct {
	searcher  Searcher
	timeRange string
}

// NewProvider 创建搜索提供者，默认只取近一年的结果
func NewProvider(searcher Searcher) *Provider {
	return &Provider{searcher: searcher, timeRange: TimeRangeYear}
}

// Search 返回最多 want 条 URL 互不相同的结果；搜索失败返回空列表而不是错误
func (p *Provider) Search(ctx context.Context, query string, want int) []model.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" || want <= 0 {
		return nil
	}

	resp, err := p.searcher.Search(ctx, &Request{
		Query:      query,
		MaxResults: want * 2,
		TimeRange:  p.timeRange,
	})
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"query": query}).Warnf("搜索失败，按无结果处理: %v", err)
		return nil
	}
	if resp == nil {
		return nil
	}

	return Dedup(resp.Results, want)
}

// Dedup 按首次出现顺序去重，丢弃空 URL，最多保留 limit 条
func Dedup(results []Result, limit int) []model.SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]model.SearchResult, 0, min(len(results), limit))

	for _, r := range results {
		if len(out) >= limit {
			break
		}
		if r.URL == "" {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		out = append(out, model.SearchResult{URL: r.URL, Title: r.Title, Body: r.Content})
	}
	return out
}
