package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/iWorld-y/event_research/internal/logger"
	"github.com/iWorld-y/event_research/internal/model"
)

// maxBodyBytes 单个页面最多读取的字节数
const maxBodyBytes = 8 << 20

// Options 抓取参数
type Options struct {
	MinChars  int
	MaxChars  int
	Timeout   time.Duration
	UserAgent string
}

// Fetcher 并发抓取搜索结果页面，受全局 HTTP 池约束
type Fetcher struct {
	client    *http.Client
	pool      *semaphore.Weighted
	extractor Extractor
	opts      Options
}

// NewFetcher 创建抓取器，pool 在所有事件和搜索词之间共享
func NewFetcher(client *http.Client, pool *semaphore.Weighted, extractor Extractor, opts Options) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if extractor == nil {
		extractor = ParagraphExtractor{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Fetcher{client: client, pool: pool, extractor: extractor, opts: opts}
}

type fetched struct {
	article model.Article
	ok      bool
}

// Fetch 抓取 results 中的页面，按完成顺序收集通过长度校验的文章。
// 收满 want 篇后取消其余请求，并等待它们全部退出后再返回。
func (f *Fetcher) Fetch(ctx context.Context, results []model.SearchResult, want int) []model.Article {
	if want <= 0 || len(results) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan fetched, len(results))
	var wg sync.WaitGroup
	for _, r := range results {
		u, ok := validURL(r.URL)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(r model.SearchResult, u *url.URL) {
			defer wg.Done()
			text, err := f.fetchOne(ctx, u)
			if err != nil {
				logger.Log.WithFields(logrus.Fields{"url": r.URL}).Debugf("抓取失败: %v", err)
				ch <- fetched{}
				return
			}
			ch <- fetched{
				article: model.Article{Title: r.Title, Body: r.Body, URL: r.URL, Text: text},
				ok:      true,
			}
		}(r, u)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	articles := make([]model.Article, 0, want)
	for res := range ch {
		if !res.ok {
			continue
		}
		articles = append(articles, res.article)
		if len(articles) >= want {
			break
		}
	}

	cancel()
	wg.Wait()
	return articles
}

func (f *Fetcher) fetchOne(ctx context.Context, u *url.URL) (string, error) {
	if err := f.pool.Acquire(ctx, 1); err != nil {
		return "", err
	}
	body, err := f.download(ctx, u)
	f.pool.Release(1)
	if err != nil {
		return "", err
	}

	text, err := f.extractor.Extract(body, u)
	if err != nil {
		return "", err
	}
	n := model.TextLength(text)
	if n < f.opts.MinChars || (f.opts.MaxChars > 0 && n > f.opts.MaxChars) {
		return "", fmt.Errorf("text length %d out of range", n)
	}
	return text, nil
}

// download 读取完整响应体后立即释放连接，解析在池外进行
func (f *Fetcher) download(ctx context.Context, u *url.URL) (io.Reader, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return bytes.NewReader(data), nil
}

func validURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}
