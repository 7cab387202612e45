package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/iWorld-y/event_research/internal/search"
)

const (
	defaultBaseURL = "https://html.duckduckgo.com/html/"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// timeRanges 映射到 DuckDuckGo 的 df 参数
var timeRanges = map[string]string{
	"day":   "d",
	"week":  "w",
	"month": "m",
	"year":  "y",
}

// Client 抓取 DuckDuckGo HTML 结果页，无需 API key
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient 创建 DuckDuckGo 客户端，baseURL 为空时使用官方 HTML 端点
func NewClient(baseURL string, timeout int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	t := time.Duration(timeout) * time.Second
	if t == 0 {
		t = 20 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: t},
	}
}

// Ensure Client implements search.Searcher
var _ search.Searcher = (*Client)(nil)

// Search 执行搜索
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	doc, err := c.fetchDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	var results []search.Result
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if req.MaxResults > 0 && len(results) >= req.MaxResults {
			return false
		}
		if s.HasClass("result--ad") {
			return true
		}

		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveLink(href)
		if target == "" {
			return true
		}

		results = append(results, search.Result{
			Title:   strings.TrimSpace(link.Text()),
			URL:     target,
			Content: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
		return true
	})

	return &search.Response{Results: results}, nil
}

func (c *Client) fetchDocument(ctx context.Context, req *search.Request) (*goquery.Document, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("q", req.Query)
	if df, ok := timeRanges[req.TimeRange]; ok {
		q.Set("df", df)
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned %s", res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// resolveLink 还原 /l/?uddg= 形式的跳转链接，非 http(s) 链接返回空串
func resolveLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		if u, err = url.Parse(target); err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
