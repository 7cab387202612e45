package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/event_research/internal/logger"
	"github.com/iWorld-y/event_research/internal/model"
)

const (
	indexAttempts   = 5
	indexRetryDelay = 2 * time.Second
)

// Client Kalshi 公共 API 客户端，只读
type Client struct {
	baseURL    string
	indexURL   string
	client     *http.Client
	retryDelay time.Duration
}

// NewClient 创建客户端，timeout 为单次请求超时
func NewClient(baseURL, indexURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		indexURL:   indexURL,
		client:     &http.Client{Timeout: timeout},
		retryDelay: indexRetryDelay,
	}
}

type eventResponse struct {
	Event   *model.Event   `json:"event"`
	Markets []model.Market `json:"markets"`
}

// GetEvent 获取事件及其嵌套市场。不做内部重试，由调用方决定是否重来。
func (c *Client) GetEvent(ctx context.Context, ticker string) (*model.Event, error) {
	endpoint := fmt.Sprintf("%s/events/%s?with_nested_markets=true", c.baseURL, url.PathEscape(ticker))

	var resp eventResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("get event %s: %w", ticker, err)
	}
	if resp.Event == nil {
		return nil, fmt.Errorf("get event %s: response has no event", ticker)
	}
	if resp.Event.Ticker == "" {
		return nil, fmt.Errorf("get event %s: event_ticker is missing", ticker)
	}
	// 未嵌套时市场列表在顶层
	if len(resp.Event.Markets) == 0 && len(resp.Markets) > 0 {
		resp.Event.Markets = resp.Markets
	}
	return resp.Event, nil
}

// IndexEntry 活跃事件列表中的一项
type IndexEntry struct {
	EventTicker string `json:"event_ticker"`
	Category    string `json:"category"`
	Title       string `json:"title"`
}

// UnmarshalJSON 兼容纯 ticker 字符串和对象两种写法
func (e *IndexEntry) UnmarshalJSON(data []byte) error {
	var ticker string
	if err := json.Unmarshal(data, &ticker); err == nil {
		*e = IndexEntry{EventTicker: ticker}
		return nil
	}

	type plain IndexEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = IndexEntry(p)
	return nil
}

// ListIndex 拉取活跃事件列表，最多尝试 5 次，每次间隔 2 秒
func (c *Client) ListIndex(ctx context.Context) ([]IndexEntry, error) {
	var lastErr error
	for attempt := 1; attempt <= indexAttempts; attempt++ {
		var entries []IndexEntry
		err := c.getJSON(ctx, c.indexURL, &entries)
		if err == nil {
			return entries, nil
		}
		lastErr = err
		logger.Log.WithFields(logrus.Fields{"attempt": attempt}).Warnf("获取事件列表失败，稍后重试: %v", err)

		if attempt == indexAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return nil, fmt.Errorf("failed to fetch event index after %d attempts: %w", indexAttempts, lastErr)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}
	return nil
}
