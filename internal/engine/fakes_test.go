package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iWorld-y/event_research/internal/model"
	"github.com/iWorld-y/event_research/internal/storage"
)

var sourceURL = regexp.MustCompile(`Source URL: (\S+)`)

// fakeLLM 按提示词类型返回固定的搜索词或逐篇摘要
type fakeLLM struct {
	queries      string
	planErr      error
	summaryErr   error
	planCalls    atomic.Int32
	summaryCalls atomic.Int32
}

func (f *fakeLLM) Complete(_ context.Context, p string) (string, error) {
	if strings.Contains(p, "short search queries") {
		f.planCalls.Add(1)
		return f.queries, f.planErr
	}
	f.summaryCalls.Add(1)
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	var paragraphs []string
	for _, m := range sourceURL.FindAllStringSubmatch(p, -1) {
		paragraphs = append(paragraphs, "Relevant facts. 2025-08-29 "+m[1])
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

// fakeSearcher 每个搜索词返回 5 个 URL，路径里带上搜索词
type fakeSearcher struct {
	calls atomic.Int32
}

func (f *fakeSearcher) Search(_ context.Context, query string, want int) []model.SearchResult {
	f.calls.Add(1)
	slug := strings.ReplaceAll(query, " ", "-")
	out := make([]model.SearchResult, 0, want)
	for i := 0; i < want; i++ {
		out = append(out, model.SearchResult{URL: fmt.Sprintf("https://news.example/%s/%d", slug, i), Title: query})
	}
	return out
}

// fakeFetcher 接受前 accept 个结果；越靠前的搜索词完成得越慢
type fakeFetcher struct {
	accept int
	calls  atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, results []model.SearchResult, want int) []model.Article {
	f.calls.Add(1)
	if len(results) > 0 {
		delay := time.Duration(30-len(results[0].URL)%30) * time.Millisecond
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
	var out []model.Article
	for _, r := range results {
		if len(out) >= min(f.accept, want) {
			break
		}
		out = append(out, model.Article{Title: r.Title, URL: r.URL, Text: strings.Repeat("t", 250)})
	}
	return out
}

// fakeSource 前 failures 次调用返回错误
type fakeSource struct {
	events   map[string]*model.Event
	failures int32
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	hold     time.Duration
}

func (f *fakeSource) GetEvent(ctx context.Context, ticker string) (*model.Event, error) {
	n := f.calls.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	if f.hold > 0 {
		time.Sleep(f.hold)
	}
	if n <= f.failures {
		return nil, errors.New("connection reset by peer")
	}
	event, ok := f.events[ticker]
	if !ok {
		return nil, fmt.Errorf("status 404: %s", ticker)
	}
	return event, nil
}

// memStore 内存报告存储
type memStore struct {
	mu      sync.Mutex
	reports map[string]string
	saves   int
	saveErr error
	getErr  error
}

func newMemStore() *memStore {
	return &memStore{reports: map[string]string{}}
}

func (m *memStore) GetReport(_ context.Context, timestamp, ticker string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	text, ok := m.reports[timestamp+"/"+ticker]
	return text, ok, nil
}

func (m *memStore) SaveReport(_ context.Context, r *model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	key := r.Timestamp + "/" + r.EventTicker
	if _, ok := m.reports[key]; ok {
		return storage.ErrReportExists
	}
	m.reports[key] = r.Text
	m.saves++
	return nil
}

func (m *memStore) Close(context.Context) error { return nil }

func twoMarketEvent(ticker string) *model.Event {
	return &model.Event{
		Ticker:   ticker,
		Title:    "Fed decision in September?",
		Category: "Economics",
		Markets: []model.Market{
			{Ticker: ticker + "-H0", Title: "Hike", Subtitle: "Hike 25bps", RulesPrimary: "Resolves Yes on a hike."},
			{Ticker: ticker + "-C25", Title: "Cut", Subtitle: "Cut 25bps", RulesPrimary: "Resolves Yes on a cut."},
		},
	}
}

const sixQueries = "fed september meeting\nfomc rate expectations\ncpi august inflation\njobs report august\npowell jackson hole\nfed funds futures"
