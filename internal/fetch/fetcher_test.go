package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/iWorld-y/event_research/internal/model"
)

func page(text string) string {
	return "<html><body><p>" + text + "</p></body></html>"
}

func newTestFetcher(pool int) *Fetcher {
	return NewFetcher(nil, semaphore.NewWeighted(int64(pool)), ParagraphExtractor{}, Options{
		MinChars:  200,
		MaxChars:  100000,
		Timeout:   5 * time.Second,
		UserAgent: "Mozilla/5.0",
	})
}

func TestFetchLengthGateAndStatus(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 250)
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Mozilla/5.0", r.Header.Get("User-Agent"))
		fmt.Fprint(w, page(long))
	})
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page(strings.Repeat("b", 199)))
	})
	mux.HandleFunc("/exact", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page(strings.Repeat("世", 200)))
	})
	mux.HandleFunc("/huge", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page(strings.Repeat("c", 100001)))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, page(long), http.StatusNotFound)
	})
	mux.HandleFunc("/created", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, page(long))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	results := []model.SearchResult{
		{URL: server.URL + "/ok", Title: "ok", Body: "snippet"},
		{URL: server.URL + "/short"},
		{URL: server.URL + "/exact", Title: "exact"},
		{URL: server.URL + "/huge"},
		{URL: server.URL + "/missing"},
		{URL: server.URL + "/created"},
		{URL: "ftp://files.example/report.txt"},
		{URL: "not a url"},
	}

	articles := newTestFetcher(10).Fetch(context.Background(), results, 5)
	require.Len(t, articles, 2)

	byURL := map[string]model.Article{}
	for _, a := range articles {
		byURL[a.URL] = a
	}
	require.Equal(t, long, byURL[server.URL+"/ok"].Text)
	require.Equal(t, "snippet", byURL[server.URL+"/ok"].Body)
	require.Equal(t, "exact", byURL[server.URL+"/exact"].Title)
}

func TestFetchCompletionOrder(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 300)
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, page(text))
	})
	mux.HandleFunc("/fast", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page(text))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	articles := newTestFetcher(10).Fetch(context.Background(), []model.SearchResult{
		{URL: server.URL + "/slow"},
		{URL: server.URL + "/fast"},
	}, 2)
	require.Len(t, articles, 2)
	require.Equal(t, server.URL+"/fast", articles[0].URL)
	require.Equal(t, server.URL+"/slow", articles[1].URL)
}

func TestFetchStopsAtQuotaAndCancelsRest(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("y", 300)
	var cancelled atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/fast/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page(text))
	})
	mux.HandleFunc("/hang/", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			cancelled.Add(1)
		case <-time.After(10 * time.Second):
			fmt.Fprint(w, page(text))
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	var results []model.SearchResult
	for i := 0; i < 3; i++ {
		results = append(results, model.SearchResult{URL: fmt.Sprintf("%s/hang/%d", server.URL, i)})
	}
	for i := 0; i < 2; i++ {
		results = append(results, model.SearchResult{URL: fmt.Sprintf("%s/fast/%d", server.URL, i)})
	}

	start := time.Now()
	articles := newTestFetcher(10).Fetch(context.Background(), results, 2)
	require.Len(t, articles, 2)
	require.Less(t, time.Since(start), 5*time.Second)
	require.Eventually(t, func() bool { return cancelled.Load() == 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestFetchRespectsPool(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	text := strings.Repeat("z", 300)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		inFlight.Add(-1)
		fmt.Fprint(w, page(text))
	}))
	defer server.Close()

	var results []model.SearchResult
	for i := 0; i < 8; i++ {
		results = append(results, model.SearchResult{URL: fmt.Sprintf("%s/%d", server.URL, i)})
	}

	articles := newTestFetcher(2).Fetch(context.Background(), results, 8)
	require.Len(t, articles, 8)
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestFetchEmptyInput(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(1)
	require.Empty(t, f.Fetch(context.Background(), nil, 5))
	require.Empty(t, f.Fetch(context.Background(), []model.SearchResult{{URL: "https://a.example"}}, 0))
}
