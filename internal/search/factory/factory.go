package factory

import (
	"fmt"

	"github.com/iWorld-y/event_research/internal/config"
	"github.com/iWorld-y/event_research/internal/search"
	"github.com/iWorld-y/event_research/internal/search/duckduckgo"
	"github.com/iWorld-y/event_research/internal/search/searxng"
	"github.com/iWorld-y/event_research/internal/search/tavily"
)

// NewSearcher 根据配置创建搜索实例
func NewSearcher(cfg config.SearchConfig) (search.Searcher, error) {
	provider := cfg.Provider
	if provider == "" {
		// 有 tavily key 时优先使用 tavily，否则走免 key 的 duckduckgo
		if cfg.Tavily.APIKey != "" {
			provider = "tavily"
		} else {
			provider = "duckduckgo"
		}
	}

	switch provider {
	case "duckduckgo":
		return duckduckgo.NewClient(cfg.DuckDuckGo.BaseURL, cfg.DuckDuckGo.Timeout), nil

	case "tavily":
		if cfg.Tavily.APIKey == "" {
			return nil, fmt.Errorf("tavily api key is missing")
		}
		return tavily.NewClient(cfg.Tavily.APIKey), nil

	case "searxng":
		if cfg.SearXNG.BaseURL == "" {
			return nil, fmt.Errorf("searxng base url is missing")
		}
		return searxng.NewClient(cfg.SearXNG.BaseURL, cfg.SearXNG.Timeout), nil

	default:
		return nil, fmt.Errorf("unknown search provider: %s", provider)
	}
}
